package form

import (
	"time"

	"qr_generator_client/internal/qr/transport"
)

// NotificationTTL is how long a notification stays on screen.
const NotificationTTL = 5 * time.Second

// NotificationKind selects how a notification is styled.
type NotificationKind string

const (
	KindSuccess NotificationKind = "success"
	KindError   NotificationKind = "error"
	KindWarning NotificationKind = "warning"
)

// Notification is a transient message shown to the user.
type Notification struct {
	Kind    NotificationKind
	Message string
	TTL     time.Duration
}

// Control identifies a button whose busy state the controller toggles.
type Control string

const (
	ControlPreview Control = "preview"
	ControlCreate  Control = "create"
)

// View is the surface the controller renders into. Implementations must be
// safe for concurrent use: preview and create may resolve at the same time.
type View interface {
	Notify(n Notification)
	SetBusy(control Control, busy bool, label string)

	ShowPreview(result transport.PreviewResult)
	ShowResult(qr transport.QR, downloadURL string)
	ShowModal(qr transport.QR, downloadURL string)
	CloseModal()

	RenderRecent(items []transport.QR, downloadURL func(id string) string)
	RenderEmpty()
	RenderLoadError(err error)

	CopyToClipboard(text string) error
}
