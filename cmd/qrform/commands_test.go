package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"qr_generator_client/internal/qr/qrtest"
	"qr_generator_client/internal/qr/transport"
	"qr_generator_client/platform/config"
	"qr_generator_client/platform/logger"
)

const seededID = "3b241101-e2bb-4255-8caf-4136c566a962"

func testApp(srv *qrtest.Server) (*app, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cfg := &config.Config{
		Env:               "test",
		APIBaseURL:        srv.URL,
		APIPrefix:         "/api",
		GeneratorPath:     "/generator/",
		HTTPTimeout:       5 * time.Second,
		CSRFCookieName:    qrtest.CSRFCookieName,
		RecentLimit:       6,
		ExportConcurrency: 2,
	}
	return &app{cfg: cfg, log: logger.Discard(), out: out}, out
}

func run(a *app, args ...string) error {
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func TestFormatAndValidate(t *testing.T) {
	srv := qrtest.New(qrtest.Options{})
	defer srv.Close()
	a, out := testApp(srv)

	if err := run(a, "format", "(55) 1234-5678"); err != nil {
		t.Fatalf("format: %v", err)
	}
	if strings.TrimSpace(out.String()) != "+525512345678" {
		t.Fatalf("unexpected format output %q", out.String())
	}

	if err := run(a, "validate", "abc"); err == nil {
		t.Fatalf("expected invalid number to fail")
	}
	if srv.TotalHits() != 0 {
		t.Fatalf("expected no backend calls, got %d", srv.TotalHits())
	}
}

func TestCreatePrimesTokenAndRecentShowsIt(t *testing.T) {
	srv := qrtest.New(qrtest.Options{RequireCSRF: true})
	defer srv.Close()
	a, out := testApp(srv)

	err := run(a, "create", "--client", "Acme", "--group", "Ventas", "--number", "5512345678")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if srv.Hits("GET /generator/") != 1 {
		t.Fatalf("expected csrf priming request")
	}
	if got := srv.LastForm(); got.WhatsAppMessage != `Hola, necesito información sobre el grupo "Ventas"` {
		t.Fatalf("expected suggested message, got %q", got.WhatsAppMessage)
	}
	if !strings.Contains(out.String(), "[success] QR code created successfully!") {
		t.Fatalf("missing success notification:\n%s", out.String())
	}

	out.Reset()
	if err := run(a, "recent"); err != nil {
		t.Fatalf("recent: %v", err)
	}
	if !strings.Contains(out.String(), "Acme [Active]") {
		t.Fatalf("expected created QR in recent list:\n%s", out.String())
	}
}

func TestRecentEmpty(t *testing.T) {
	srv := qrtest.New(qrtest.Options{})
	defer srv.Close()
	a, out := testApp(srv)

	if err := run(a, "recent"); err != nil {
		t.Fatalf("recent: %v", err)
	}
	if !strings.Contains(out.String(), "No QR codes created yet") {
		t.Fatalf("expected empty placeholder:\n%s", out.String())
	}
}

func TestGetRejectsInvalidID(t *testing.T) {
	srv := qrtest.New(qrtest.Options{})
	defer srv.Close()
	a, _ := testApp(srv)

	if err := run(a, "get", "not-a-uuid"); err == nil {
		t.Fatalf("expected error")
	}
	if srv.TotalHits() != 0 {
		t.Fatalf("expected no backend calls, got %d", srv.TotalHits())
	}
}

func TestStatsAndDownload(t *testing.T) {
	srv := qrtest.New(qrtest.Options{})
	defer srv.Close()
	srv.Seed(transport.QR{ID: seededID, ClientName: "Acme", GroupName: "Ventas", ScanCount: 2, IsActive: true})
	a, out := testApp(srv)

	if err := run(a, "stats", seededID); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out.String(), "Total scans:  2") {
		t.Fatalf("unexpected stats output:\n%s", out.String())
	}

	path := filepath.Join(t.TempDir(), "qr.png")
	if err := run(a, "download", seededID, "-o", path); err != nil {
		t.Fatalf("download: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(data, qrtest.PNG) {
		t.Fatalf("expected image written, got %q (%v)", data, err)
	}
}

func TestExportToDirectory(t *testing.T) {
	srv := qrtest.New(qrtest.Options{})
	defer srv.Close()
	srv.Seed(transport.QR{ID: seededID, ClientName: "Acme", GroupName: "Ventas", IsActive: true})
	a, _ := testApp(srv)

	dir := t.TempDir()
	if err := run(a, "export", "--dir", dir, "--format", "yaml"); err != nil {
		t.Fatalf("export: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, seededID+"_QR_Acme_Ventas.png")); err != nil {
		t.Fatalf("expected exported image: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "listing.yaml")); err != nil {
		t.Fatalf("expected listing: %v", err)
	}
}

func TestWriteStatsSanitizesBackendText(t *testing.T) {
	var buf bytes.Buffer
	stats := &transport.Stats{ID: seededID, ClientName: "<b>Acme</b>\x1b[2J", GroupName: "Ventas\nInjected", TotalScans: 1}

	if err := writeStats(&buf, stats); err != nil {
		t.Fatalf("write stats: %v", err)
	}
	out := buf.String()
	if strings.ContainsAny(out, "\x1b<") {
		t.Fatalf("expected control sequences and markup removed:\n%q", out)
	}
	if !strings.Contains(out, "Client:       Acme[2J\n") || !strings.Contains(out, "Group:        Ventas Injected\n") {
		t.Fatalf("unexpected stats output:\n%s", out)
	}
}
