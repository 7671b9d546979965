package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Acme Corp", want: "Acme Corp"},
		{name: "html tags", input: "<b>Acme</b> Corp", want: "Acme Corp"},
		{name: "encoded tag", input: "&lt;script&gt;alert(1)&lt;/script&gt;Acme", want: "alert(1)Acme"},
		{name: "escape sequence", input: "Acme\x1b[2J\x1b]52;c;AAAA\x07", want: "Acme[2J]52;c;AAAA"},
		{name: "newlines", input: "line one\nline two\r", want: "line one line two"},
		{name: "unicode kept", input: "información", want: "información"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Fatalf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
