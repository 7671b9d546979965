// Package transport provides DTOs for the QR domain.
package transport

import (
	"encoding/json"
	"time"
)

// QR is a QR code entity as returned by the backend.
type QR struct {
	ID              string    `json:"id" yaml:"id"`
	ClientName      string    `json:"client_name" yaml:"client_name"`
	GroupName       string    `json:"group_name" yaml:"group_name"`
	WhatsAppNumber  string    `json:"whatsapp_number" yaml:"whatsapp_number"`
	WhatsAppMessage string    `json:"whatsapp_message" yaml:"whatsapp_message"`
	Description     string    `json:"description,omitempty" yaml:"description,omitempty"`
	IsActive        bool      `json:"is_active" yaml:"is_active"`
	ScanCount       int       `json:"scan_count" yaml:"scan_count"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	QRImageURL      string    `json:"qr_image_url" yaml:"qr_image_url"`
	WhatsAppURL     string    `json:"whatsapp_url" yaml:"whatsapp_url"`
	RedirectURL     string    `json:"redirect_url,omitempty" yaml:"redirect_url,omitempty"`
}

// Backend timestamps are RFC 3339, or offset-less ISO 8601 when the backend
// runs without time zone support. Naive values are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// parseTimestamp returns the zero time for missing or unreadable values.
func parseTimestamp(raw json.RawMessage) time.Time {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// UnmarshalJSON decodes a QR, tolerating timestamp formats time.Time rejects.
func (q *QR) UnmarshalJSON(data []byte) error {
	type plain QR
	aux := struct {
		*plain
		CreatedAt json.RawMessage `json:"created_at"`
		UpdatedAt json.RawMessage `json:"updated_at"`
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	q.CreatedAt = parseTimestamp(aux.CreatedAt)
	q.UpdatedAt = parseTimestamp(aux.UpdatedAt)
	return nil
}

// PreviewResult is the body of a successful preview call.
type PreviewResult struct {
	QRImageURL  string `json:"qr_image_url" yaml:"qr_image_url"`
	WhatsAppURL string `json:"whatsapp_url" yaml:"whatsapp_url"`
}

// ListResponse is the paginated list body. Count/Next/Previous are only set
// when the backend paginates.
type ListResponse struct {
	Count    *int    `json:"count,omitempty"`
	Next     *string `json:"next,omitempty"`
	Previous *string `json:"previous,omitempty"`
	Results  []QR    `json:"results"`
}

// Stats is the scan summary for one QR code.
type Stats struct {
	ID          string    `json:"id" yaml:"id"`
	ClientName  string    `json:"client_name" yaml:"client_name"`
	GroupName   string    `json:"group_name" yaml:"group_name"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	TotalScans  int       `json:"total_scans" yaml:"total_scans"`
	RecentScans int       `json:"recent_scans" yaml:"recent_scans"` // last 7 days
	IsActive    bool      `json:"is_active" yaml:"is_active"`
}

// UnmarshalJSON decodes Stats with the same timestamp tolerance as QR.
func (s *Stats) UnmarshalJSON(data []byte) error {
	type plain Stats
	aux := struct {
		*plain
		CreatedAt json.RawMessage `json:"created_at"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.CreatedAt = parseTimestamp(aux.CreatedAt)
	return nil
}

// FormFields are the user-entered values submitted for preview and create.
type FormFields struct {
	ClientName      string `json:"client_name" form:"client_name"`
	GroupName       string `json:"group_name" form:"group_name"`
	WhatsAppNumber  string `json:"whatsapp_number" form:"whatsapp_number"`
	WhatsAppMessage string `json:"whatsapp_message" form:"whatsapp_message"`
	Description     string `json:"description,omitempty" form:"description"`
}

// Field is one multipart form entry.
type Field struct {
	Name  string
	Value string
}

// Multipart returns the fields in submission order. The four form inputs are
// always present, even when empty; description only when set.
func (f FormFields) Multipart() []Field {
	fields := []Field{
		{Name: "client_name", Value: f.ClientName},
		{Name: "group_name", Value: f.GroupName},
		{Name: "whatsapp_number", Value: f.WhatsAppNumber},
		{Name: "whatsapp_message", Value: f.WhatsAppMessage},
	}
	if f.Description != "" {
		fields = append(fields, Field{Name: "description", Value: f.Description})
	}
	return fields
}

// Image is a binary QR bitmap fetched from the backend.
type Image struct {
	ContentType string
	Filename    string
	Data        []byte
}
