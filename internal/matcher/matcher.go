// Package matcher checks a store backend against the oldest server releases
// the bundled drivers support.
package matcher

import (
	"regexp"
	"strconv"
	"strings"

	"taskview/internal/scanner"
	"taskview/internal/store"
)

var minimums = map[string]string{
	store.DriverMySQL:    "5.7",
	store.DriverPostgres: "12",
	// CREATE TABLE IF NOT EXISTS
	store.DriverSQLite: "3.3",
}

// Result is the verdict for one backend.
type Result struct {
	Backend   scanner.Backend `json:"backend"`
	Minimum   string          `json:"minimum"`
	Supported bool            `json:"supported"`
}

// Match reports whether b is at least the minimum version for its dialect.
// Unknown dialects are never supported.
func Match(b scanner.Backend) Result {
	floor, ok := minimums[b.Dialect]
	if !ok {
		return Result{Backend: b}
	}
	return Result{Backend: b, Minimum: floor, Supported: cmpVersion(b.Version, floor) >= 0}
}

// -------- version comparison --------
// "8.0.33-0ubuntu0.22.04.2" and "14.9" compare by their numeric parts.

var numRe = regexp.MustCompile(`\d+`)

func tokenizeVersion(s string) []int {
	// only the leading dotted run counts; build suffixes may carry more digits
	if i := strings.IndexAny(s, "-+ "); i >= 0 {
		s = s[:i]
	}
	nums := numRe.FindAllString(s, -1)
	out := make([]int, 0, len(nums))
	for _, n := range nums {
		x, _ := strconv.Atoi(n)
		out = append(out, x)
	}
	return out
}

func cmpVersion(a, b string) int {
	ta := tokenizeVersion(strings.TrimSpace(a))
	tb := tokenizeVersion(strings.TrimSpace(b))
	for i := 0; i < len(ta) || i < len(tb); i++ {
		var xa, xb int
		if i < len(ta) {
			xa = ta[i]
		}
		if i < len(tb) {
			xb = tb[i]
		}
		if xa > xb {
			return 1
		}
		if xa < xb {
			return -1
		}
	}
	return 0
}
