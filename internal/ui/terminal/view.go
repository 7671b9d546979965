// Package terminal renders the QR form into a text terminal.
package terminal

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/skip2/go-qrcode"

	"qr_generator_client/internal/form"
	"qr_generator_client/internal/qr/transport"
	"qr_generator_client/internal/whatsapp"
	"qr_generator_client/platform/phone"
	"qr_generator_client/platform/sanitize"
)

const dateLayout = "2006-01-02"

// View writes form output to an io.Writer. Writes are serialized.
type View struct {
	mu        sync.Mutex
	out       io.Writer
	showQR    bool
	modalOpen bool
	busy      map[form.Control]string
}

// Option configures a View.
type Option func(*View)

// WithASCIIQR prints the deep link as a QR code drawn with block characters.
func WithASCIIQR(enabled bool) Option {
	return func(v *View) {
		v.showQR = enabled
	}
}

// New creates a View writing to out.
func New(out io.Writer, opts ...Option) *View {
	v := &View{
		out:  out,
		busy: make(map[form.Control]string),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var _ form.View = (*View)(nil)

// Notify prints the message tagged with its kind.
func (v *View) Notify(n form.Notification) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "[%s] %s\n", n.Kind, sanitize.Text(n.Message))
}

// SetBusy prints the busy label when a control starts working.
func (v *View) SetBusy(control form.Control, busy bool, label string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if busy {
		v.busy[control] = label
		fmt.Fprintln(v.out, label)
		return
	}
	delete(v.busy, control)
}

// Busy reports the label of a control while it is busy.
func (v *View) Busy(control form.Control) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	label, ok := v.busy[control]
	return label, ok
}

// ShowPreview prints the preview image URL and deep link, with the chat
// target when the link carries a number.
func (v *View) ShowPreview(result transport.PreviewResult) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "Preview image: %s\n", sanitize.Text(result.QRImageURL))
	fmt.Fprintf(v.out, "WhatsApp link: %s\n", sanitize.Text(result.WhatsAppURL))
	if number, ok := whatsapp.Number(result.WhatsAppURL); ok {
		fmt.Fprintf(v.out, "Chat with:     %s%s\n", number, regionSuffix(number))
	}
	v.writeQR(result.WhatsAppURL)
}

// ShowResult prints the stored entity.
func (v *View) ShowResult(qr transport.QR, downloadURL string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "ID:       %s\n", sanitize.Text(qr.ID))
	fmt.Fprintf(v.out, "Created:  %s\n", formatTime(qr.CreatedAt, time.DateTime))
	fmt.Fprintf(v.out, "Scans:    %d\n", qr.ScanCount)
	fmt.Fprintf(v.out, "Image:    %s\n", sanitize.Text(qr.QRImageURL))
	fmt.Fprintf(v.out, "Download: %s\n", downloadURL)
	fmt.Fprintf(v.out, "WhatsApp: %s\n", sanitize.Text(qr.WhatsAppURL))
	v.writeQR(qr.WhatsAppURL)
}

// ShowModal draws a boxed confirmation and marks the modal open.
func (v *View) ShowModal(qr transport.QR, downloadURL string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.modalOpen = true

	lines := []string{
		"QR code created",
		"ID:       " + sanitize.Text(qr.ID),
		"Client:   " + sanitize.Text(qr.ClientName),
		"Download: " + downloadURL,
		"WhatsApp: " + sanitize.Text(qr.WhatsAppURL),
	}
	width := 0
	for _, line := range lines {
		if n := len([]rune(line)); n > width {
			width = n
		}
	}
	border := "+" + strings.Repeat("-", width+2) + "+"
	fmt.Fprintln(v.out, border)
	for _, line := range lines {
		fmt.Fprintf(v.out, "| %s%s |\n", line, strings.Repeat(" ", width-len([]rune(line))))
	}
	fmt.Fprintln(v.out, border)
}

// CloseModal marks the modal closed.
func (v *View) CloseModal() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.modalOpen = false
}

// ModalOpen reports whether the confirmation modal is showing.
func (v *View) ModalOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.modalOpen
}

// RenderRecent prints one block per QR code, in the order given.
func (v *View) RenderRecent(items []transport.QR, downloadURL func(id string) string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, qr := range items {
		if i > 0 {
			fmt.Fprintln(v.out)
		}
		status := "Inactive"
		if qr.IsActive {
			status = "Active"
		}
		fmt.Fprintf(v.out, "%s [%s]\n", sanitize.Text(qr.ClientName), status)
		fmt.Fprintf(v.out, "  %s\n", sanitize.Text(qr.GroupName))
		fmt.Fprintf(v.out, "  %s%s\n", sanitize.Text(qr.WhatsAppNumber), regionSuffix(qr.WhatsAppNumber))
		fmt.Fprintf(v.out, "  %d scans  %s\n", qr.ScanCount, formatTime(qr.CreatedAt, dateLayout))
		fmt.Fprintf(v.out, "  View:     %s\n", sanitize.Text(qr.QRImageURL))
		fmt.Fprintf(v.out, "  Download: %s\n", downloadURL(qr.ID))
	}
}

// RenderEmpty prints the placeholder for an empty list.
func (v *View) RenderEmpty() {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, "No QR codes created yet")
	fmt.Fprintln(v.out, "Create your first QR with: qrform create")
}

// RenderLoadError prints the list placeholder for a failed load. The cause
// is logged, not shown.
func (v *View) RenderLoadError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, "Error loading QR codes")
}

// CopyToClipboard emits an OSC 52 sequence; terminals that support it put
// the text on the system clipboard.
func (v *View) CopyToClipboard(text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if text == "" {
		return fmt.Errorf("nothing to copy")
	}
	_, err := fmt.Fprintf(v.out, "\x1b]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
	return err
}

func (v *View) writeQR(content string) {
	if !v.showQR || content == "" {
		return
	}
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		fmt.Fprintf(v.out, "(could not draw QR: %v)\n", err)
		return
	}
	fmt.Fprint(v.out, code.ToSmallString(false))
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(layout)
}

func regionSuffix(number string) string {
	region, ok := phone.Region(number)
	if !ok {
		return ""
	}
	return " (" + region + ")"
}
