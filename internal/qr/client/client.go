// Package client provides the HTTP client for the QR generator backend API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"qr_generator_client/internal/qr/transport"
	"qr_generator_client/platform/apperr"
	"qr_generator_client/platform/config"
	"qr_generator_client/platform/csrf"
	"qr_generator_client/platform/logger"
)

const (
	maxJSONBody  = 4 << 20
	maxImageBody = 16 << 20

	requestIDHeader = "X-Request-ID"

	defaultPreviewError = "error generating preview"
	defaultCreateError  = "error creating QR"
)

// Client is the HTTP client for the QR backend.
type Client struct {
	httpClient    *http.Client
	baseURL       *url.URL
	prefix        string
	generatorPath string
	log           *logger.Logger
}

// New creates a new QR backend client with its own cookie jar.
func New(cfg config.QRAPIConfig, log *logger.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.GetAPIBaseURL(), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %q", cfg.GetAPIBaseURL())
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		httpClient:    &http.Client{Timeout: cfg.GetHTTPTimeout(), Jar: jar},
		baseURL:       base,
		prefix:        cfg.GetAPIPrefix(),
		generatorPath: cfg.GetGeneratorPath(),
		log:           log,
	}, nil
}

// Jar returns the cookie jar shared by every request of this client.
func (c *Client) Jar() http.CookieJar {
	return c.httpClient.Jar
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// List fetches the QR collection in backend order.
func (c *Client) List(ctx context.Context) ([]transport.QR, error) {
	return c.getList(ctx, c.qrPath())
}

// Active fetches only active QR codes.
func (c *Client) Active(ctx context.Context) ([]transport.QR, error) {
	return c.getList(ctx, c.qrPath("active"))
}

// Get fetches a single QR code.
func (c *Client) Get(ctx context.Context, id string) (*transport.QR, error) {
	var qr transport.QR
	if err := c.getJSON(ctx, c.qrPath(id), &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

// Stats fetches the scan statistics of a QR code.
func (c *Client) Stats(ctx context.Context, id string) (*transport.Stats, error) {
	var stats transport.Stats
	if err := c.getJSON(ctx, c.qrPath(id, "stats"), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Preview asks the backend to render a QR without persisting it.
// The token is sent as X-CSRFToken even when empty.
func (c *Client) Preview(ctx context.Context, token string, fields transport.FormFields) (*transport.PreviewResult, error) {
	raw, status, err := c.postForm(ctx, c.qrPath("preview"), token, fields)
	if err != nil {
		return nil, err
	}

	env, err := decodeOutcome(raw, status, "preview")
	if err != nil {
		return nil, err
	}
	if !present(env.QRImageURL) {
		return nil, env.failure(raw, defaultPreviewError)
	}

	var result transport.PreviewResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperr.Transport("invalid preview response", err)
	}
	return &result, nil
}

// Create persists a new QR code and returns the entity the backend stored.
func (c *Client) Create(ctx context.Context, token string, fields transport.FormFields) (*transport.QR, error) {
	raw, status, err := c.postForm(ctx, c.qrPath(), token, fields)
	if err != nil {
		return nil, err
	}

	env, err := decodeOutcome(raw, status, "create")
	if err != nil {
		return nil, err
	}
	if !present(env.ID) {
		return nil, env.failure(raw, defaultCreateError)
	}

	var qr transport.QR
	if err := json.Unmarshal(raw, &qr); err != nil {
		return nil, apperr.Transport("invalid create response", err)
	}
	return &qr, nil
}

// Image fetches the inline QR bitmap.
func (c *Client) Image(ctx context.Context, id string) (*transport.Image, error) {
	return c.getImage(ctx, c.qrPath(id, "image"))
}

// Download fetches the high-resolution QR bitmap served as an attachment.
func (c *Client) Download(ctx context.Context, id string) (*transport.Image, error) {
	return c.getImage(ctx, c.qrPath(id, "download"))
}

// ImageURL returns the absolute URL of the inline bitmap.
func (c *Client) ImageURL(id string) string {
	return c.absolute(c.qrPath(id, "image"))
}

// DownloadURL returns the absolute URL of the attachment bitmap.
func (c *Client) DownloadURL(id string) string {
	return c.absolute(c.qrPath(id, "download"))
}

// PrimeCSRF loads the generator page so the backend sets its token cookie in the jar.
func (c *Client) PrimeCSRF(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, c.generatorPath, nil, "", "", false)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxJSONBody))

	if resp.StatusCode >= http.StatusBadRequest {
		return apperr.New(apperr.FromStatus(resp.StatusCode), fmt.Sprintf("generator page returned %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) getList(ctx context.Context, path string) ([]transport.QR, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "", "", false)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBody))
	if err != nil {
		return nil, apperr.Transport("read list response", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, statusError(resp.StatusCode, raw)
	}

	return decodeList(raw)
}

// decodeList accepts both the paginated {"results": [...]} shape and a bare array.
// A body without results yields an empty list.
func decodeList(raw []byte) ([]transport.QR, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []transport.QR
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, apperr.Transport("invalid list response", err)
		}
		return items, nil
	}

	var page transport.ListResponse
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, apperr.Transport("invalid list response", err)
	}
	if page.Results == nil {
		return []transport.QR{}, nil
	}
	return page.Results, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "", "", false)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBody))
	if err != nil {
		return apperr.Transport("read response", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Transport("invalid response", err)
	}
	return nil
}

func (c *Client) getImage(ctx context.Context, path string) (*transport.Image, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "", "", false)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBody))
	if err != nil {
		return nil, apperr.Transport("read image", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, data)
	}

	return &transport.Image{
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    filenameFrom(resp.Header.Get("Content-Disposition")),
		Data:        data,
	}, nil
}

func (c *Client) postForm(ctx context.Context, path, token string, fields transport.FormFields) ([]byte, int, error) {
	body, contentType, err := encodeMultipart(fields.Multipart())
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "encode form", err)
	}

	resp, err := c.do(ctx, http.MethodPost, path, body, contentType, token, true)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBody))
	if err != nil {
		return nil, resp.StatusCode, apperr.Transport("read response", err)
	}
	return raw, resp.StatusCode, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType, token string, mutating bool) (*http.Response, error) {
	reqURL := c.absolute(path)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if mutating {
		req.Header.Set(csrf.HeaderName, token)
		// Django checks Referer on HTTPS before accepting the token.
		req.Header.Set("Referer", c.absolute(c.generatorPath))
	}

	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	log := c.log.WithRequestID(requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.APIError(method, path, 0, err)
		return nil, apperr.Transport("request failed", err)
	}
	log.APIRequest(method, path, resp.StatusCode, float64(time.Since(start).Milliseconds()))

	return resp, nil
}

func (c *Client) qrPath(parts ...string) string {
	segments := append([]string{c.prefix, "qr"}, parts...)
	for i := 1; i < len(segments); i++ {
		segments[i] = url.PathEscape(segments[i])
	}
	return strings.Join(segments, "/") + "/"
}

func (c *Client) absolute(path string) string {
	return c.baseURL.String() + "/" + strings.TrimLeft(path, "/")
}

// outcome holds only the keys that tell a form post's success from its failure,
// so field-error bodies never collide with the typed entity fields.
type outcome struct {
	ID         json.RawMessage `json:"id"`
	QRImageURL json.RawMessage `json:"qr_image_url"`
	Error      json.RawMessage `json:"error"`
	Detail     json.RawMessage `json:"detail"`
}

// decodeOutcome parses a form post response. A body that is not a JSON object
// maps through the status when it signals failure (Django serves HTML for CSRF
// and server errors), and is a transport failure otherwise.
func decodeOutcome(raw []byte, status int, op string) (*outcome, error) {
	var env outcome
	if err := json.Unmarshal(raw, &env); err != nil {
		if status >= http.StatusBadRequest {
			return nil, apperr.New(apperr.FromStatus(status), fmt.Sprintf("backend returned %d", status))
		}
		return nil, apperr.Transport("invalid "+op+" response", err)
	}
	return &env, nil
}

// failure builds the error for a body without its success field. Without an
// error or detail message, the first field error (by field name) is used.
func (o *outcome) failure(raw []byte, fallback string) error {
	fields := fieldErrors(raw)
	msg := messageOr(jsonString(o.Error), jsonString(o.Detail))
	if msg == "" && len(fields) > 0 {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		msg = names[0] + ": " + fields[names[0]][0]
	}
	return apperr.Application(messageOr(msg, fallback)).WithDetails(fields)
}

func present(v json.RawMessage) bool {
	trimmed := bytes.TrimSpace(v)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) && !bytes.Equal(trimmed, []byte(`""`))
}

func jsonString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}

func statusError(status int, raw []byte) error {
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(raw, &body)

	msg := messageOr(body.Error, body.Detail)
	if msg == "" {
		msg = fmt.Sprintf("backend returned %d", status)
	}
	return apperr.New(apperr.FromStatus(status), msg)
}

// fieldErrors extracts field-level messages such as {"whatsapp_number": ["..."]}.
func fieldErrors(raw []byte) map[string][]string {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}

	out := make(map[string][]string)
	for field, value := range generic {
		var msgs []string
		if err := json.Unmarshal(value, &msgs); err == nil && len(msgs) > 0 {
			out[field] = msgs
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func filenameFrom(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) != "" {
		return msg
	}
	return fallback
}
