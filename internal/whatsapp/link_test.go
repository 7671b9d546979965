package whatsapp

import "testing"

func TestDeepLink(t *testing.T) {
	tests := []struct {
		number  string
		message string
		want    string
	}{
		{number: "+525512345678", message: "Hola", want: "https://wa.me/525512345678?text=Hola"},
		{number: "5512345678", message: "", want: "https://wa.me/525512345678"},
		{number: "+52 55 1234 5678", message: "Hola, ¿qué tal?", want: "https://wa.me/525512345678?text=Hola%2C+%C2%BFqu%C3%A9+tal%3F"},
	}

	for _, tt := range tests {
		if got := DeepLink(tt.number, tt.message); got != tt.want {
			t.Fatalf("DeepLink(%q, %q) = %q, want %q", tt.number, tt.message, got, tt.want)
		}
	}
}

func TestNumber(t *testing.T) {
	if got, ok := Number("https://wa.me/525512345678?text=Hola"); !ok || got != "+525512345678" {
		t.Fatalf("unexpected number %q %v", got, ok)
	}
	if _, ok := Number("https://example.com/525512345678"); ok {
		t.Fatalf("expected non wa.me link to be rejected")
	}
	if _, ok := Number("https://wa.me/"); ok {
		t.Fatalf("expected empty path to be rejected")
	}
}
