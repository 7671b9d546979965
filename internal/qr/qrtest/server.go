// Package qrtest provides an in-memory fake of the QR backend for tests.
// It serves the same REST surface as the real backend through a gin router
// mounted on an httptest.Server, and counts requests per route.
package qrtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"qr_generator_client/internal/qr/transport"
	"qr_generator_client/internal/whatsapp"
	"qr_generator_client/platform/apperr"
	"qr_generator_client/platform/csrf"
	"qr_generator_client/platform/httpkit"
	"qr_generator_client/platform/logger"
	"qr_generator_client/platform/phone"
)

// CSRFCookieName is the cookie the fake sets on the generator page.
const CSRFCookieName = "csrftoken"

// PNG is the bitmap every image endpoint returns.
var PNG = []byte("\x89PNG\r\n\x1a\nfake-qr")

// Options tune the fake.
type Options struct {
	// RequireCSRF enables the header/cookie double-submit check on POST.
	RequireCSRF bool
	// CSRFToken is the cookie value handed out by the generator page.
	CSRFToken string
	// BareList serves the collection as a JSON array instead of {"results": [...]}.
	BareList bool
	// Log receives one line per request. Defaults to a discarding logger.
	Log *logger.Logger
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server

	opts Options

	mu       sync.Mutex
	items    []transport.QR
	hits     map[string]int
	lastForm transport.FormFields
	lastCSRF []string
	reqIDs   []string

	// Override, when set for a route key ("POST /api/qr/preview/" etc.),
	// replaces the default handler.
	overrides map[string]gin.HandlerFunc
}

// New starts a fake backend. Call Close when done.
func New(opts Options) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		opts:      opts,
		hits:      make(map[string]int),
		overrides: make(map[string]gin.HandlerFunc),
	}
	if s.opts.CSRFToken == "" {
		s.opts.CSRFToken = "test-csrf-token"
	}
	if s.opts.Log == nil {
		s.opts.Log = logger.Discard()
	}

	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpkit.RequestLogger(s.opts.Log), s.count())

	r.GET("/generator/", s.generatorPage)

	api := r.Group("/api/qr")
	if s.opts.RequireCSRF {
		api.Use(httpkit.RequireCSRF(CSRFCookieName))
	}
	api.GET("/", s.route("GET /api/qr/", s.list))
	api.POST("/", s.route("POST /api/qr/", s.create))
	api.GET("/active/", s.route("GET /api/qr/active/", s.active))
	api.POST("/preview/", s.route("POST /api/qr/preview/", s.preview))
	api.GET("/:id/", s.route("GET /api/qr/:id/", s.get))
	api.GET("/:id/stats/", s.route("GET /api/qr/:id/stats/", s.stats))
	api.GET("/:id/image/", s.route("GET /api/qr/:id/image/", s.image(false)))
	api.GET("/:id/download/", s.route("GET /api/qr/:id/download/", s.image(true)))

	return r
}

// Override replaces the handler of a route, e.g. "POST /api/qr/".
func (s *Server) Override(route string, h gin.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[route] = h
}

// Seed inserts items in the order given (first is newest).
func (s *Server) Seed(items ...transport.QR) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
}

// Hits returns how many requests reached the route, e.g. "POST /api/qr/preview/".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// TotalHits returns the number of requests of any kind.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// LastForm returns the last multipart form received by preview or create.
func (s *Server) LastForm() transport.FormFields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastForm
}

// CSRFHeaders returns the X-CSRFToken values of every POST, in arrival order.
// A request that omitted the header records "<absent>".
func (s *Server) CSRFHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lastCSRF...)
}

// RequestIDs returns the X-Request-ID of every request, in arrival order.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.reqIDs...)
}

// Token returns the CSRF cookie value the fake hands out.
func (s *Server) Token() string {
	return s.opts.CSRFToken
}

// BaseURL returns the parsed server URL.
func (s *Server) BaseURL() *url.URL {
	u, _ := url.Parse(s.URL)
	return u
}

func (s *Server) count() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Counted before the handler runs so the count is visible once the client has a response.
		route := c.Request.Method + " " + c.FullPath()
		if c.FullPath() == "" {
			route = c.Request.Method + " " + c.Request.URL.Path
		}
		s.mu.Lock()
		s.hits[route]++
		s.reqIDs = append(s.reqIDs, c.GetHeader("X-Request-ID"))
		s.mu.Unlock()
		c.Next()
	}
}

func (s *Server) route(key string, fallback gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost {
			s.mu.Lock()
			if values, ok := c.Request.Header[http.CanonicalHeaderKey(csrf.HeaderName)]; ok && len(values) > 0 {
				s.lastCSRF = append(s.lastCSRF, values[0])
			} else {
				s.lastCSRF = append(s.lastCSRF, "<absent>")
			}
			s.mu.Unlock()
		}

		s.mu.Lock()
		h, ok := s.overrides[key]
		s.mu.Unlock()
		if ok {
			h(c)
			return
		}
		fallback(c)
	}
}

func (s *Server) generatorPage(c *gin.Context) {
	c.SetCookie(CSRFCookieName, s.opts.CSRFToken, 3600, "/", "", false, false)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<html><body>generator</body></html>"))
}

func (s *Server) list(c *gin.Context) {
	s.mu.Lock()
	items := append([]transport.QR(nil), s.items...)
	s.mu.Unlock()

	for i := range items {
		s.decorate(&items[i])
	}

	if s.opts.BareList {
		c.JSON(http.StatusOK, items)
		return
	}
	count := len(items)
	c.JSON(http.StatusOK, transport.ListResponse{Count: &count, Results: items})
}

func (s *Server) active(c *gin.Context) {
	s.mu.Lock()
	var items []transport.QR
	for _, item := range s.items {
		if item.IsActive {
			items = append(items, item)
		}
	}
	s.mu.Unlock()

	for i := range items {
		s.decorate(&items[i])
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) get(c *gin.Context) {
	item, ok := s.find(c.Param("id"))
	if !ok {
		httpkit.Fail(c, apperr.NotFound("Not found."))
		return
	}
	s.decorate(&item)
	c.JSON(http.StatusOK, item)
}

func (s *Server) stats(c *gin.Context) {
	item, ok := s.find(c.Param("id"))
	if !ok {
		httpkit.Fail(c, apperr.NotFound("Not found."))
		return
	}
	c.JSON(http.StatusOK, transport.Stats{
		ID:          item.ID,
		ClientName:  item.ClientName,
		GroupName:   item.GroupName,
		CreatedAt:   item.CreatedAt,
		TotalScans:  item.ScanCount,
		RecentScans: item.ScanCount,
		IsActive:    item.IsActive,
	})
}

func (s *Server) preview(c *gin.Context) {
	var fields transport.FormFields
	if err := c.ShouldBind(&fields); err != nil {
		httpkit.Fail(c, apperr.Application("invalid form: "+err.Error()))
		return
	}
	s.recordForm(fields)

	if fields.WhatsAppNumber == "" || fields.WhatsAppMessage == "" {
		httpkit.Fail(c, apperr.Application("whatsapp_number and whatsapp_message are required"))
		return
	}

	c.JSON(http.StatusOK, transport.PreviewResult{
		QRImageURL:  s.URL + "/api/qr/preview/image.png",
		WhatsAppURL: whatsapp.DeepLink(fields.WhatsAppNumber, fields.WhatsAppMessage),
	})
}

func (s *Server) create(c *gin.Context) {
	var fields transport.FormFields
	if err := c.ShouldBind(&fields); err != nil {
		httpkit.Fail(c, apperr.Application("invalid form: "+err.Error()))
		return
	}
	s.recordForm(fields)

	digits := phone.WhatsAppDigits(fields.WhatsAppNumber)
	if len(digits) != 10 && len(digits) != 12 {
		httpkit.Fail(c, apperr.Validation("invalid whatsapp_number").WithDetails(httpkit.FieldErrors{
			"whatsapp_number": {"must have 10 digits (no country code) or 12 digits (with +52)"},
		}))
		return
	}
	if strings.TrimSpace(fields.WhatsAppMessage) == "" {
		httpkit.Fail(c, apperr.Validation("invalid whatsapp_message").WithDetails(httpkit.FieldErrors{
			"whatsapp_message": {"message cannot be empty"},
		}))
		return
	}

	now := time.Now().UTC()
	item := transport.QR{
		ID:              uuid.NewString(),
		ClientName:      fields.ClientName,
		GroupName:       fields.GroupName,
		WhatsAppNumber:  fields.WhatsAppNumber,
		WhatsAppMessage: fields.WhatsAppMessage,
		Description:     fields.Description,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	s.mu.Lock()
	s.items = append([]transport.QR{item}, s.items...)
	s.mu.Unlock()

	s.decorate(&item)
	c.JSON(http.StatusCreated, item)
}

func (s *Server) image(attachment bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, ok := s.find(c.Param("id"))
		if !ok {
			httpkit.Fail(c, apperr.NotFound("Not found."))
			return
		}
		name := fmt.Sprintf("qr_%s_%s.png", item.ClientName, item.GroupName)
		disposition := "inline"
		if attachment {
			name = strings.ReplaceAll(fmt.Sprintf("QR_%s_%s.png", item.ClientName, item.GroupName), " ", "_")
			disposition = "attachment"
		}
		c.Header("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, name))
		c.Data(http.StatusOK, "image/png", PNG)
	}
}

func (s *Server) find(id string) (transport.QR, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return transport.QR{}, false
}

func (s *Server) recordForm(fields transport.FormFields) {
	s.mu.Lock()
	s.lastForm = fields
	s.mu.Unlock()
}

func (s *Server) decorate(item *transport.QR) {
	item.QRImageURL = fmt.Sprintf("%s/api/qr/%s/image/", s.URL, item.ID)
	item.WhatsAppURL = whatsapp.DeepLink(item.WhatsAppNumber, item.WhatsAppMessage)
	item.RedirectURL = fmt.Sprintf("/qr/%s/", item.ID)
}
