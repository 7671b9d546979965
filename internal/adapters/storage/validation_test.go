package storage

import "testing"

func TestValidateContentType(t *testing.T) {
	s := &MinIOService{maxFileSize: MaxFileSize}

	tests := []struct {
		contentType string
		wantErr     bool
	}{
		{contentType: "image/png", wantErr: false},
		{contentType: "text/csv; charset=utf-8", wantErr: false},
		{contentType: "Application/JSON", wantErr: false},
		{contentType: "video/mp4", wantErr: true},
		{contentType: "", wantErr: true},
	}

	for _, tt := range tests {
		err := s.ValidateContentType(tt.contentType)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ValidateContentType(%q) error = %v, wantErr %v", tt.contentType, err, tt.wantErr)
		}
	}
}

func TestValidateFileSize(t *testing.T) {
	s := &MinIOService{maxFileSize: 10}

	if err := s.ValidateFileSize(0); err == nil {
		t.Fatalf("expected error for empty file")
	}
	if err := s.ValidateFileSize(10); err != nil {
		t.Fatalf("unexpected error at limit: %v", err)
	}
	if err := s.ValidateFileSize(11); err == nil {
		t.Fatalf("expected error above limit")
	}
}
