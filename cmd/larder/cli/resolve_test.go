package cli

import (
	"strings"
	"testing"

	"larder/internal/catalog"
)

func TestResolveToken(t *testing.T) {
	entries := map[string]catalog.Entry{
		"abcdef123456": {Name: "beans"},
		"abc999888777": {Name: "rice"},
		"fff000111222": {Name: "salt"},
		"ddd000111222": {Name: "salt"},
	}

	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr string
	}{
		{"exact token", "abcdef123456", "abcdef123456", ""},
		{"unique prefix", "fff", "fff000111222", ""},
		{"ambiguous prefix", "abc", "", "ambiguous"},
		{"name", "rice", "abc999888777", ""},
		{"name case-insensitive", "BEANS", "abcdef123456", ""},
		{"ambiguous name", "salt", "", "ambiguous"},
		{"not found", "nope", "", "no persisted source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveToken(entries, tt.arg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
