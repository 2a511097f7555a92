package instrumentation

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/sse", "/sse"},
		{"/messages/", "/messages/"},
		{"/messages", "/messages/"},
		{"/messages/?sessionId=abc", "/messages/"},
		{"/mcp", "/mcp"},
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/wp-admin", PathOther},
		{"", PathOther},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.path); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
