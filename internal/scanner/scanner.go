// Package scanner inspects the database server behind the task store.
package scanner

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"taskview/internal/store"
)

// Backend identifies the server a store is connected to.
type Backend struct {
	Dialect string `json:"dialect"`
	Vendor  string `json:"vendor"`
	Product string `json:"product"`
	Version string `json:"version"`
}

type probe struct {
	vendor  string
	product string
	query   string
}

var probes = map[string]probe{
	store.DriverMySQL:    {vendor: "Oracle", product: "MySQL", query: "SELECT VERSION()"},
	store.DriverPostgres: {vendor: "PostgreSQL", product: "PostgreSQL", query: "SELECT version()"},
	store.DriverSQLite:   {vendor: "SQLite", product: "SQLite", query: "SELECT sqlite_version()"},
}

// FetchVersion asks the server for its version string.
func FetchVersion(ctx context.Context, db *sqlx.DB, dialect string) (Backend, error) {
	p, ok := probes[dialect]
	if !ok {
		return Backend{}, fmt.Errorf("unsupported db type: %s", dialect)
	}
	var raw string
	if err := db.QueryRowxContext(ctx, p.query).Scan(&raw); err != nil {
		return Backend{}, fmt.Errorf("fetch %s version: %w", dialect, err)
	}
	return Backend{
		Dialect: dialect,
		Vendor:  p.vendor,
		Product: p.product,
		Version: extractFirstVersionNumber(raw),
	}, nil
}

// Scan probes the server behind st.
func Scan(ctx context.Context, st *store.Store) (Backend, error) {
	return FetchVersion(ctx, st.DB(), st.Dialect())
}

// extractFirstVersionNumber picks "14.9" out of
// "PostgreSQL 14.9 on x86_64-pc-linux-gnu, ...".
func extractFirstVersionNumber(s string) string {
	for _, p := range strings.Fields(s) {
		if strings.ContainsAny(p, "0123456789") {
			return strings.TrimRight(p, ",")
		}
	}
	return s
}
