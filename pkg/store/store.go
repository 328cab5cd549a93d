// Package store persists finished graph builds ("runs") so that the HTTP API
// can serve them again by ID.
//
// Backends:
//   - [MemoryStore]: in-process, for tests and single-shot servers
//   - [FileStore]: one JSON file per run, for the CLI
//   - [mongo.Store]: a MongoDB collection, for shared deployments
//
// Usage:
//
//	rec := store.NewRecord(result, reg.Name(), opts)
//	if err := s.Save(ctx, rec); err != nil {
//	    return err
//	}
//	rec, err := s.Get(ctx, id)
//
// [mongo.Store]: github.com/matzehuels/cratedeps/pkg/store/mongo.Store
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/cratedeps/pkg/deps"
	"github.com/matzehuels/cratedeps/pkg/graph"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Record is one stored graph build.
type Record struct {
	ID        string         `json:"id" bson:"_id"`
	Crate     string         `json:"crate" bson:"crate"`
	Root      graph.Key      `json:"root" bson:"root"`
	Registry  string         `json:"registry" bson:"registry"`
	Options   RunOptions     `json:"options" bson:"options"`
	Graph     graph.Document `json:"graph" bson:"graph"`
	Stats     RunStats       `json:"stats" bson:"stats"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

// RunOptions are the build options that shaped a run.
type RunOptions struct {
	MaxDepth         int      `json:"max_depth" bson:"max_depth"`
	Kinds            []string `json:"kinds" bson:"kinds"`
	SkipUnresolvable bool     `json:"skip_unresolvable" bson:"skip_unresolvable"`
}

// RunStats mirrors deps.Stats with the duration in milliseconds.
type RunStats struct {
	Nodes      int   `json:"nodes" bson:"nodes"`
	Edges      int   `json:"edges" bson:"edges"`
	Queries    int   `json:"queries" bson:"queries"`
	Skipped    int   `json:"skipped" bson:"skipped"`
	DurationMS int64 `json:"duration_ms" bson:"duration_ms"`
}

// NewRecord captures a build result under a fresh random ID.
func NewRecord(res *deps.Result, registry string, opts deps.Options) *Record {
	opts = opts.WithDefaults()
	return &Record{
		ID:       uuid.NewString(),
		Crate:    res.Root.Name,
		Root:     res.Root,
		Registry: registry,
		Options: RunOptions{
			MaxDepth:         opts.MaxDepth,
			Kinds:            opts.Kinds.Strings(),
			SkipUnresolvable: opts.SkipUnresolvable,
		},
		Graph: res.Graph.Document(),
		Stats: RunStats{
			Nodes:      res.Stats.Nodes,
			Edges:      res.Stats.Edges,
			Queries:    res.Stats.Queries,
			Skipped:    res.Stats.Skipped,
			DurationMS: res.Stats.Duration.Milliseconds(),
		},
		CreatedAt: time.Now().UTC(),
	}
}

// Store is the interface for run storage backends.
type Store interface {
	// Save stores rec, replacing any run with the same ID.
	Save(ctx context.Context, rec *Record) error

	// Get returns the run with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns the most recent runs of crate, newest first.
	// An empty crate lists runs of every crate.
	List(ctx context.Context, crate string, limit int) ([]*Record, error)

	// Delete removes a run. Deleting a missing run is not an error.
	Delete(ctx context.Context, id string) error

	Close() error
}

// ValidID reports whether id has the shape NewRecord produces. Backends
// reject other IDs before touching storage.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
