package controlpanel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPathPattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/api/*", "/api/runs", true},
		{"/api/*", "/api/", true},
		{"/api/*", "/api", false},
		{"/api/*", "/api/auth/login", true},
		{"/api/auth/*", "/api/auth/login", true},
		{"/api/auth/*", "/api/runs", false},
		{"/API/*", "/api/runs", false},
		{"/a?c", "/abc", true},
		{"/a?c", "/ac", false},
		{"/*.js", "/static/app.js", true},
		{"/a*b*c", "/axxbyyc", true},
		{"/a*b", "/ab/x", false},
		{"*", "", true},
		{"", "", true},
		{"", "/", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchPathPattern(tt.pattern, tt.path), "%q ~ %q", tt.pattern, tt.path)
	}
}
