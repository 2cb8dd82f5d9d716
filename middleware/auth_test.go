package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"well formed", "Bearer abc123", "abc123"},
		{"no scheme", "abc123", ""},
		{"empty header", "", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"lowercase scheme", "bearer abc123", ""},
		{"trailing garbage", "Bearer abc123 extra", ""},
		{"scheme only", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBearerToken(tt.header))
		})
	}
}
