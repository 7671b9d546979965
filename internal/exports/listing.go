package exports

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"qr_generator_client/internal/qr/transport"
)

// Format is a listing output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts csv, json, yaml and yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want csv, json or yaml)", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/json"
	}
}

type listingRow struct {
	ID              string `csv:"id"`
	ClientName      string `csv:"client_name"`
	GroupName       string `csv:"group_name"`
	WhatsAppNumber  string `csv:"whatsapp_number"`
	WhatsAppMessage string `csv:"whatsapp_message"`
	IsActive        bool   `csv:"is_active"`
	ScanCount       int    `csv:"scan_count"`
	CreatedAt       string `csv:"created_at"`
	QRImageURL      string `csv:"qr_image_url"`
	WhatsAppURL     string `csv:"whatsapp_url"`
}

// WriteListing writes items in the given format, preserving their order.
func WriteListing(w io.Writer, format Format, items []transport.QR) error {
	if items == nil {
		items = []transport.QR{}
	}

	switch format {
	case FormatCSV:
		rows := make([]listingRow, 0, len(items))
		for _, item := range items {
			rows = append(rows, listingRow{
				ID:              item.ID,
				ClientName:      item.ClientName,
				GroupName:       item.GroupName,
				WhatsAppNumber:  item.WhatsAppNumber,
				WhatsAppMessage: item.WhatsAppMessage,
				IsActive:        item.IsActive,
				ScanCount:       item.ScanCount,
				CreatedAt:       formatCreated(item.CreatedAt),
				QRImageURL:      item.QRImageURL,
				WhatsAppURL:     item.WhatsAppURL,
			})
		}
		return gocsv.Marshal(&rows, w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func formatCreated(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
