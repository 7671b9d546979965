package exports

import (
	"bytes"
	"context"
	"fmt"

	"qr_generator_client/internal/adapters/storage"
	"qr_generator_client/internal/qr/transport"
	"qr_generator_client/platform/config"
	"qr_generator_client/platform/logger"
)

// Config is what the exports module needs from the application configuration.
type Config interface {
	config.ExportConfig
	config.StorageConfig
}

// Module is the exports bounded context module.
type Module struct {
	exporter *Exporter
	cfg      Config
	log      *logger.Logger
}

// NewModule creates and initializes the exports module.
func NewModule(images ImageSource, cfg Config, log *logger.Logger) *Module {
	return &Module{
		exporter: NewExporter(images, cfg, log),
		cfg:      cfg,
		log:      log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// Sink returns a bucket sink when MinIO is configured, otherwise a directory sink.
func (m *Module) Sink(ctx context.Context, dir, folder string) (Sink, error) {
	if !m.cfg.IsMinIOEnabled() {
		return NewDirSink(dir)
	}

	store, err := storage.NewMinIOService(m.cfg)
	if err != nil {
		return nil, err
	}
	m.log.Info("exporting to object storage", "bucket", m.cfg.GetMinioBucketQRExports(), "folder", folder)
	return NewBucketSink(ctx, store, m.cfg.GetMinioBucketQRExports(), folder)
}

// Run exports the images of items and a listing of them into sink.
func (m *Module) Run(ctx context.Context, items []transport.QR, sink Sink, format Format) (*Report, error) {
	report, err := m.exporter.Images(ctx, items, sink)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteListing(&buf, format, items); err != nil {
		return nil, fmt.Errorf("write listing: %w", err)
	}
	if _, err := sink.Put(ctx, "listing."+string(format), format.ContentType(), buf.Bytes()); err != nil {
		return nil, fmt.Errorf("store listing: %w", err)
	}

	return report, nil
}
