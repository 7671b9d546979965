package phone

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare national number", input: "5512345678", want: "+525512345678"},
		{name: "national number with separators", input: "55-1234 (5678)", want: "+525512345678"},
		{name: "twelve digits with country code", input: "525512345678", want: "+525512345678"},
		{name: "already international", input: "+1 (415) 555-0100", want: "+14155550100"},
		{name: "twelve digits without 52 falls back", input: "441234567890", want: "+441234567890"},
		{name: "short number falls back", input: "123", want: "+123"},
		{name: "empty input", input: "", want: "+"},
		{name: "letters only", input: "abc", want: "+"},
		{name: "inner plus kept by cleaning", input: "12+34", want: "+12+34"},
		{name: "leading plus after cleaning", input: " +52 55 1234 5678 ", want: "+525512345678"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Format(tc.input); got != tc.want {
				t.Fatalf("Format(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestFormatTenDigitsGetsCountryPrefix(t *testing.T) {
	rng := rand.New(rand.NewSource(52))
	for i := 0; i < 500; i++ {
		d := fmt.Sprintf("%010d", rng.Int63n(10_000_000_000))
		if got := Format(d); got != "+52"+d {
			t.Fatalf("Format(%q) = %q, want %q", d, got, "+52"+d)
		}
	}
}

func TestFormatTwelveDigitsWithCountryCode(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	for i := 0; i < 500; i++ {
		s := "52" + fmt.Sprintf("%010d", rng.Int63n(10_000_000_000))
		if got := Format(s); got != "+"+s {
			t.Fatalf("Format(%q) = %q, want %q", s, got, "+"+s)
		}
	}
}

func TestFormatIsIdempotent(t *testing.T) {
	inputs := []string{
		"5512345678", "525512345678", "+1 415 555 0100", "", "abc", "12+34",
		"(55) 1234-5678", "0044 20 7946 0958", "+", "++52",
	}
	for _, in := range inputs {
		once := Format(in)
		if !strings.HasPrefix(once, "+") {
			t.Fatalf("Format(%q) = %q, expected a leading +", in, once)
		}
		if twice := Format(once); twice != once {
			t.Fatalf("Format not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestValidWhatsApp(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{input: "5512345678", want: true},
		{input: "525512345678", want: true},
		{input: "+14155550100", want: true},
		{input: "+123456789012345", want: true},
		{input: "+1234567890123456", want: false},
		{input: "abc", want: false},
		{input: "+1234", want: false},
		{input: "", want: false},
		{input: "12+3456789012", want: false},
		// Fallback branch: 11 digits without a country code still validates.
		{input: "12345678901", want: true},
	}

	for _, tc := range cases {
		if got := ValidWhatsApp(tc.input); got != tc.want {
			t.Errorf("ValidWhatsApp(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestRegion(t *testing.T) {
	region, ok := Region("5512345678")
	if !ok || region != "MX" {
		t.Fatalf("expected MX, got %q (ok=%v)", region, ok)
	}
	if _, ok := Region("abc"); ok {
		t.Fatalf("expected no region for garbage input")
	}
}

func TestPlausibleRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "+1234"} {
		if Plausible(in) {
			t.Errorf("Plausible(%q) = true, want false", in)
		}
	}
}

func TestWhatsAppDigits(t *testing.T) {
	cases := map[string]string{
		"+52 55 1234 5678": "525512345678",
		"5512345678":       "525512345678",
		"+14155550100":     "14155550100",
	}
	for in, want := range cases {
		if got := WhatsAppDigits(in); got != want {
			t.Errorf("WhatsAppDigits(%q) = %q, want %q", in, got, want)
		}
	}
}
