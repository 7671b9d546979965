// Package httpkit writes gin responses in the shapes the Django QR backend uses.
package httpkit

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"qr_generator_client/platform/apperr"
)

// Message is the {"error": "..."} body the QR views return for rejected forms.
type Message struct {
	Error string `json:"error"`
}

// Detail is the body REST framework uses for lookups and permission failures.
type Detail struct {
	Detail string `json:"detail"`
}

// FieldErrors is a serializer validation body: field name to messages.
type FieldErrors map[string][]string

var csrfFailurePage = []byte("<html><body><h1>Forbidden (403)</h1><p>CSRF verification failed. Request aborted.</p></body></html>")

// Fail writes err with the status of its kind. Field errors are written as the
// bare field map, application errors as Message, everything else as Detail.
func Fail(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, Detail{Detail: err.Error()})
		return
	}

	if fields, ok := appErr.Details.(FieldErrors); ok {
		c.JSON(appErr.HTTPStatus(), fields)
		return
	}
	if appErr.Kind == apperr.KindApplication {
		c.JSON(appErr.HTTPStatus(), Message{Error: appErr.Message})
		return
	}
	c.JSON(appErr.HTTPStatus(), Detail{Detail: appErr.Message})
}

// CSRFFailure aborts with the HTML page Django serves when its token check fails.
func CSRFFailure(c *gin.Context) {
	c.Data(http.StatusForbidden, "text/html; charset=utf-8", csrfFailurePage)
	c.Abort()
}
