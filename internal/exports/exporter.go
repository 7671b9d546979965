// Package exports copies QR images and listings out of the backend into a
// local directory or an object storage bucket.
package exports

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"qr_generator_client/internal/qr/transport"
	"qr_generator_client/platform/config"
	"qr_generator_client/platform/logger"
)

// ImageSource fetches the downloadable bitmap of a QR code.
type ImageSource interface {
	Download(ctx context.Context, id string) (*transport.Image, error)
}

// Result is the outcome for one QR code.
type Result struct {
	ID       string
	Location string
	Err      error
}

// Report lists exported and failed items in input order.
type Report struct {
	Written []Result
	Failed  []Result
}

// Exporter downloads QR images with bounded concurrency and a request rate cap.
type Exporter struct {
	images      ImageSource
	concurrency int
	limiter     *rate.Limiter
	log         *logger.Logger
}

// NewExporter creates an Exporter. A non-positive rate disables pacing.
func NewExporter(images ImageSource, cfg config.ExportConfig, log *logger.Logger) *Exporter {
	concurrency := cfg.GetExportConcurrency()
	if concurrency <= 0 {
		concurrency = 1
	}

	limit := rate.Inf
	if perSec := cfg.GetExportRatePerSecond(); perSec > 0 {
		limit = rate.Limit(perSec)
	}

	return &Exporter{
		images:      images,
		concurrency: concurrency,
		limiter:     rate.NewLimiter(limit, concurrency),
		log:         log,
	}
}

// Images downloads every item and hands it to sink. A failed download is
// recorded in the report; a sink failure or cancellation aborts the export.
func (e *Exporter) Images(ctx context.Context, items []transport.QR, sink Sink) (*Report, error) {
	results := make([]Result, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := e.limiter.Wait(gctx); err != nil {
				return err
			}

			img, err := e.images.Download(gctx, item.ID)
			if err != nil {
				e.log.Warn("export download failed", "qrId", item.ID, "error", err)
				results[i] = Result{ID: item.ID, Err: err}
				return nil
			}

			location, err := sink.Put(gctx, fileName(item.ID, img.Filename), contentTypeOr(img.ContentType), img.Data)
			if err != nil {
				return fmt.Errorf("store %s: %w", item.ID, err)
			}
			results[i] = Result{ID: item.ID, Location: location}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, r := range results {
		if r.Err != nil {
			report.Failed = append(report.Failed, r)
			continue
		}
		report.Written = append(report.Written, r)
	}

	e.log.Info("export finished", "written", len(report.Written), "failed", len(report.Failed))
	return report, nil
}

// fileName prefixes the backend filename with the id; two QR codes for the
// same client and group share a backend filename.
func fileName(id, backendName string) string {
	name := filepath.Base(strings.TrimSpace(backendName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "qr.png"
	}
	return id + "_" + name
}

func contentTypeOr(contentType string) string {
	if contentType == "" {
		return "image/png"
	}
	return contentType
}
