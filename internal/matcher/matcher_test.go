package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskview/internal/scanner"
	"taskview/internal/store"
)

func TestCmpVersion(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"8.0.33", "5.7", 1},
		{"5.7", "5.7.0", 0},
		{"5.6.51", "5.7", -1},
		{"14.9", "12", 1},
		{"11.22", "12", -1},
		{"8.0.33-0ubuntu0.22.04.2", "8.0.34", -1},
		{"3.45.1", "3.3", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cmpVersion(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestMatch(t *testing.T) {
	r := Match(scanner.Backend{Dialect: store.DriverMySQL, Version: "8.0.33"})
	assert.True(t, r.Supported)
	assert.Equal(t, "5.7", r.Minimum)

	r = Match(scanner.Backend{Dialect: store.DriverPostgres, Version: "11.22"})
	assert.False(t, r.Supported)
	assert.Equal(t, "12", r.Minimum)

	r = Match(scanner.Backend{Dialect: "oracle", Version: "19c"})
	assert.False(t, r.Supported)
	assert.Empty(t, r.Minimum)
}
