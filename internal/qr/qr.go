// Package qr provides the QR bounded context.
// This file defines the public interfaces exposed to other packages.
package qr

import (
	"context"

	"qr_generator_client/internal/qr/transport"
)

// API is the backend surface the form controller and the exporter depend on.
// Other packages should depend on this interface, not the concrete client.
type API interface {
	// List returns the QR collection in backend order.
	List(ctx context.Context) ([]transport.QR, error)

	// Active returns only QR codes that are enabled.
	Active(ctx context.Context) ([]transport.QR, error)

	// Get returns a single QR code.
	Get(ctx context.Context, id string) (*transport.QR, error)

	// Stats returns the scan statistics of a QR code.
	Stats(ctx context.Context, id string) (*transport.Stats, error)

	// Preview renders a QR without persisting it. token is sent as the anti-forgery header.
	Preview(ctx context.Context, token string, fields transport.FormFields) (*transport.PreviewResult, error)

	// Create persists a QR. token is sent as the anti-forgery header.
	Create(ctx context.Context, token string, fields transport.FormFields) (*transport.QR, error)

	// Image fetches the inline bitmap.
	Image(ctx context.Context, id string) (*transport.Image, error)

	// Download fetches the attachment bitmap.
	Download(ctx context.Context, id string) (*transport.Image, error)

	// DownloadURL returns the absolute URL of the attachment bitmap.
	DownloadURL(id string) string
}
