// Package postgres implements a registry over a crates.io database dump
// loaded into PostgreSQL (tables crates, versions and dependencies).
package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	errs "github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

// Name identifies this backend in cache keys and metrics.
const Name = "postgres"

const versionsQuery = `
SELECT versions.num
FROM versions
JOIN crates ON crates.id = versions.crate_id
WHERE crates.name = $1`

const dependenciesQuery = `
SELECT b.name, deps.req, deps.kind, deps.optional
FROM crates AS a
JOIN versions ON a.id = versions.crate_id
JOIN dependencies AS deps ON deps.version_id = versions.id
JOIN crates AS b ON deps.crate_id = b.id
WHERE a.name = $1
AND versions.num = $2
AND deps.kind = ANY($3)
ORDER BY deps.id`

// Registry queries a crates.io dump through a single connection.
type Registry struct {
	db *sql.DB
}

// Open connects to dsn and verifies the connection. Failures are reported
// as REGISTRY_CONNECTION.
func Open(ctx context.Context, dsn string) (*Registry, error) {
	if dsn == "" {
		return nil, errs.New(errs.ErrCodeRegistryConnection, "no database URL configured (set DATABASE_URL)")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeRegistryConnection, err, "open database")
	}
	// Traversal is sequential; one connection is all it ever needs.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrCodeRegistryConnection, err, "connect to database")
	}
	return &Registry{db: db}, nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Registry { return &Registry{db: db} }

// Name returns "postgres".
func (r *Registry) Name() string { return Name }

// ListVersions returns every version string of crate in table order.
func (r *Registry) ListVersions(ctx context.Context, crate string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, versionsQuery, crate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// ListDependencies returns the dependencies of crate@version whose kind
// code is in kinds.
func (r *Registry) ListDependencies(ctx context.Context, crate, version string, kinds registry.Kinds) ([]registry.Dependency, error) {
	codes := make([]int64, 0, len(kinds))
	for _, c := range kinds.Codes() {
		codes = append(codes, int64(c))
	}

	rows, err := r.db.QueryContext(ctx, dependenciesQuery, crate, version, pq.Array(codes))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deps []registry.Dependency
	for rows.Next() {
		var (
			d    registry.Dependency
			code int
		)
		if err := rows.Scan(&d.Name, &d.Requirement, &code, &d.Optional); err != nil {
			return nil, err
		}
		kind, ok := registry.KindFromCode(code)
		if !ok {
			continue
		}
		d.Kind = kind
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// Close closes the database handle.
func (r *Registry) Close() error { return r.db.Close() }
