package terminal

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"qr_generator_client/internal/form"
	"qr_generator_client/internal/qr/transport"
)

func downloadURL(id string) string {
	return "http://qr.test/api/qr/" + id + "/download/"
}

func TestNotifySanitizesMessage(t *testing.T) {
	var buf bytes.Buffer
	v := New(&buf)

	v.Notify(form.Notification{Kind: form.KindError, Message: "Error creating QR: <b>bad</b>\x1b[31m"})

	if got := buf.String(); got != "[error] Error creating QR: bad[31m\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRenderRecent(t *testing.T) {
	var buf bytes.Buffer
	v := New(&buf)

	v.RenderRecent([]transport.QR{
		{ID: "a", ClientName: "Acme", GroupName: "Ventas", WhatsAppNumber: "+525512345678", IsActive: true, ScanCount: 4},
		{ID: "b", ClientName: "Globex", GroupName: "Soporte", WhatsAppNumber: "+525587654321"},
	}, downloadURL)

	out := buf.String()
	for _, want := range []string{"Acme [Active]", "Globex [Inactive]", "4 scans", downloadURL("a"), downloadURL("b")} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Index(out, "Acme") > strings.Index(out, "Globex") {
		t.Fatalf("expected backend order preserved:\n%s", out)
	}
}

func TestPlaceholders(t *testing.T) {
	var buf bytes.Buffer
	v := New(&buf)

	v.RenderEmpty()
	if !strings.Contains(buf.String(), "No QR codes created yet") {
		t.Fatalf("unexpected empty placeholder %q", buf.String())
	}

	buf.Reset()
	v.RenderLoadError(errors.New("connection refused"))
	if buf.String() != "Error loading QR codes\n" {
		t.Fatalf("unexpected error placeholder %q", buf.String())
	}
}

func TestModalState(t *testing.T) {
	var buf bytes.Buffer
	v := New(&buf)

	v.ShowModal(transport.QR{ID: "a", ClientName: "Acme", WhatsAppURL: "https://wa.me/525512345678"}, downloadURL("a"))
	if !v.ModalOpen() {
		t.Fatalf("expected modal open")
	}
	if !strings.Contains(buf.String(), "| Client:   Acme") {
		t.Fatalf("unexpected modal:\n%s", buf.String())
	}

	v.CloseModal()
	if v.ModalOpen() {
		t.Fatalf("expected modal closed")
	}
}

func TestBusyState(t *testing.T) {
	var buf bytes.Buffer
	v := New(&buf)

	v.SetBusy(form.ControlCreate, true, "Creating...")
	if label, ok := v.Busy(form.ControlCreate); !ok || label != "Creating..." {
		t.Fatalf("expected busy create control, got %q %v", label, ok)
	}
	v.SetBusy(form.ControlCreate, false, "Create QR")
	if _, ok := v.Busy(form.ControlCreate); ok {
		t.Fatalf("expected idle control")
	}
}

func TestShowPreviewDrawsQR(t *testing.T) {
	var buf bytes.Buffer
	v := New(&buf, WithASCIIQR(true))

	v.ShowPreview(transport.PreviewResult{QRImageURL: "http://qr.test/p.png", WhatsAppURL: "https://wa.me/525512345678?text=Hola"})

	out := buf.String()
	if !strings.Contains(out, "WhatsApp link: https://wa.me/525512345678?text=Hola") {
		t.Fatalf("missing deep link:\n%s", out)
	}
	if !strings.ContainsAny(out, "█▀▄") {
		t.Fatalf("expected block-drawn QR:\n%s", out)
	}
}

func TestCopyToClipboard(t *testing.T) {
	var buf bytes.Buffer
	v := New(&buf)

	if err := v.CopyToClipboard("https://wa.me/525512345678"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte("https://wa.me/525512345678")) + "\a"
	if buf.String() != want {
		t.Fatalf("unexpected sequence %q", buf.String())
	}

	if err := v.CopyToClipboard(""); err == nil {
		t.Fatalf("expected error for empty text")
	}
}
