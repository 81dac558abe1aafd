package urlsafe

import (
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/products", false},
		{"http://example.com/about", false},
		{"ftp://evil.com/data", true},      // bad scheme
		{"javascript:alert(1)", true},      // bad scheme
		{"http://127.0.0.1/admin", true},   // loopback
		{"http://10.0.0.1/internal", true}, // private
		{"http://192.168.1.1/api", true},   // private
		{"http://[::1]/api", true},         // IPv6 loopback
		{"http://172.16.0.1/secret", true}, // private
	}
	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error=%v, wantErr=%v", tt.url, err, tt.wantErr)
		}
	}
}

func TestValidateURL_NoHost(t *testing.T) {
	if err := ValidateURL("https:///path-only"); err == nil {
		t.Fatal("expected error for URL without host")
	}
}

func TestLimitedReadAll(t *testing.T) {
	data, err := LimitedReadAll(strings.NewReader("hello"), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("got %q, want %q", data, "hello")
	}

	if _, err := LimitedReadAll(strings.NewReader(strings.Repeat("x", 100)), 10); err == nil {
		t.Fatal("expected error when body exceeds limit")
	}
}
