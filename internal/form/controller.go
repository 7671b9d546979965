// Package form drives the QR generator form: it validates the user input,
// submits preview and create requests, and renders the outcome into a View.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"qr_generator_client/internal/qr"
	"qr_generator_client/internal/qr/transport"
	"qr_generator_client/platform/apperr"
	"qr_generator_client/platform/csrf"
	"qr_generator_client/platform/logger"
	"qr_generator_client/platform/phone"
	"qr_generator_client/platform/validator"
)

const (
	labelPreviewBusy = "Generating..."
	labelPreviewIdle = "Preview"
	labelCreateBusy  = "Creating..."
	labelCreateIdle  = "Create QR"

	msgPreviewRequired = "Please complete the WhatsApp number and message"
	msgCreateRequired  = "Please complete all required fields"
	msgInvalidNumber   = "Please enter a valid WhatsApp number"

	defaultRecentLimit = 6
)

// Fields are the raw form inputs as typed by the user.
type Fields struct {
	ClientName      string
	GroupName       string
	WhatsAppNumber  string
	WhatsAppMessage string
	Description     string
}

type previewInput struct {
	WhatsAppNumber  string `validate:"required"`
	WhatsAppMessage string `validate:"required"`
}

type createInput struct {
	ClientName      string `validate:"required"`
	WhatsAppNumber  string `validate:"required"`
	WhatsAppMessage string `validate:"required"`
}

// Controller orchestrates the form operations. One Controller serves one form.
type Controller struct {
	api         qr.API
	tokens      csrf.TokenSource
	view        View
	val         *validator.Validator
	log         *logger.Logger
	recentLimit int

	previewBusy atomic.Bool
	createBusy  atomic.Bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithRecentLimit sets how many entries LoadRecent renders.
func WithRecentLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.recentLimit = n
		}
	}
}

// New creates a Controller. A nil token source sends an empty anti-forgery token.
func New(api qr.API, tokens csrf.TokenSource, view View, val *validator.Validator, log *logger.Logger, opts ...Option) *Controller {
	if tokens == nil {
		tokens = csrf.Static("")
	}
	if val == nil {
		val = validator.New()
	}
	c := &Controller{
		api:         api,
		tokens:      tokens,
		view:        view,
		val:         val,
		log:         log,
		recentLimit: defaultRecentLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Preview asks the backend for a preview of the QR the fields describe.
func (c *Controller) Preview(ctx context.Context, f Fields) (*transport.PreviewResult, error) {
	if err := c.check(previewInput{WhatsAppNumber: f.WhatsAppNumber, WhatsAppMessage: f.WhatsAppMessage}, f.WhatsAppNumber, msgPreviewRequired); err != nil {
		c.notify(KindError, err.Error())
		return nil, err
	}

	if !c.previewBusy.CompareAndSwap(false, true) {
		return nil, apperr.Conflict("preview already in progress")
	}
	c.view.SetBusy(ControlPreview, true, labelPreviewBusy)
	defer func() {
		c.view.SetBusy(ControlPreview, false, labelPreviewIdle)
		c.previewBusy.Store(false)
	}()

	payload := c.payload(f)
	c.warnIfImplausible(payload.WhatsAppNumber)

	result, err := c.api.Preview(ctx, c.tokens.Token(), payload)
	if err != nil {
		c.log.Error("preview failed", "error", err)
		c.notify(KindError, "Error generating preview: "+describe(err))
		return nil, err
	}

	c.view.ShowPreview(*result)
	c.notify(KindSuccess, "Preview generated successfully")
	return result, nil
}

// Create persists a QR and shows it in the result view and the modal.
func (c *Controller) Create(ctx context.Context, f Fields) (*transport.QR, error) {
	in := createInput{ClientName: f.ClientName, WhatsAppNumber: f.WhatsAppNumber, WhatsAppMessage: f.WhatsAppMessage}
	if err := c.check(in, f.WhatsAppNumber, msgCreateRequired); err != nil {
		c.notify(KindError, err.Error())
		return nil, err
	}

	if !c.createBusy.CompareAndSwap(false, true) {
		return nil, apperr.Conflict("create already in progress")
	}
	c.view.SetBusy(ControlCreate, true, labelCreateBusy)
	defer func() {
		c.view.SetBusy(ControlCreate, false, labelCreateIdle)
		c.createBusy.Store(false)
	}()

	payload := c.payload(f)
	c.warnIfImplausible(payload.WhatsAppNumber)

	created, err := c.api.Create(ctx, c.tokens.Token(), payload)
	if err != nil {
		c.log.Error("create failed", "error", err)
		c.notify(KindError, "Error creating QR: "+describe(err))
		return nil, err
	}

	downloadURL := c.api.DownloadURL(created.ID)
	c.view.ShowResult(*created, downloadURL)
	c.view.ShowModal(*created, downloadURL)
	c.notify(KindSuccess, "QR code created successfully!")

	c.log.Info("qr created", "qrId", created.ID, "client", created.ClientName)
	return created, nil
}

// LoadRecent renders the newest QR codes. Failures end up in the view as a
// placeholder; the error is still returned to the caller.
func (c *Controller) LoadRecent(ctx context.Context) error {
	items, err := c.api.List(ctx)
	if err != nil {
		c.log.Error("error loading recent QRs", "error", err)
		c.view.RenderLoadError(err)
		return err
	}

	if len(items) == 0 {
		c.view.RenderEmpty()
		return nil
	}
	if len(items) > c.recentLimit {
		items = items[:c.recentLimit]
	}
	c.view.RenderRecent(items, c.api.DownloadURL)
	return nil
}

// FormatNumber is the blur-time formatter: empty input stays empty.
func (c *Controller) FormatNumber(raw string) string {
	if raw == "" {
		return ""
	}
	return phone.Format(raw)
}

// SuggestMessage returns the default message for a group when the user has
// not typed one yet. Otherwise current is returned unchanged.
func (c *Controller) SuggestMessage(group, current string) string {
	if group == "" || current != "" {
		return current
	}
	return `Hola, necesito información sobre el grupo "` + group + `"`
}

// CloseModal hides the confirmation modal.
func (c *Controller) CloseModal() {
	c.view.CloseModal()
}

// CopyToClipboard copies text and reports the outcome.
func (c *Controller) CopyToClipboard(text string) error {
	if err := c.view.CopyToClipboard(text); err != nil {
		c.notify(KindError, "Error copying")
		return err
	}
	c.notify(KindSuccess, "Copied to clipboard")
	return nil
}

// check runs the required-field rules first, then the number rule.
func (c *Controller) check(input interface{}, number, requiredMsg string) error {
	if err := c.val.Struct(input); err != nil {
		if tags := validator.FailedTags(err); tags != nil {
			return apperr.Validation(requiredMsg).WithDetails(tags)
		}
		return apperr.Wrap(apperr.KindInternal, "validate form", err)
	}
	if err := c.val.Var(number, validator.WhatsAppTag); err != nil {
		return apperr.Validation(msgInvalidNumber)
	}
	return nil
}

func (c *Controller) payload(f Fields) transport.FormFields {
	return transport.FormFields{
		ClientName:      f.ClientName,
		GroupName:       f.GroupName,
		WhatsAppNumber:  phone.Format(f.WhatsAppNumber),
		WhatsAppMessage: f.WhatsAppMessage,
		Description:     strings.TrimSpace(f.Description),
	}
}

func (c *Controller) warnIfImplausible(number string) {
	if phone.Plausible(number) {
		return
	}
	c.notify(KindWarning, fmt.Sprintf("%s does not look like a dialable number", number))
}

func (c *Controller) notify(kind NotificationKind, message string) {
	c.log.Notification(string(kind), message)
	c.view.Notify(Notification{Kind: kind, Message: message, TTL: NotificationTTL})
}

// describe returns the message shown to the user, including the cause of
// transport failures.
func describe(err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind == apperr.KindTransport && appErr.Err != nil {
		return fmt.Sprintf("%s: %v", appErr.Message, appErr.Err)
	}
	return err.Error()
}
