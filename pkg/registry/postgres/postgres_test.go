package postgres

import (
	"context"
	"os"
	"testing"

	errs "github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

func TestOpenWithoutDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	if !errs.Is(err, errs.ErrCodeRegistryConnection) {
		t.Errorf("Open(\"\") error = %v, want REGISTRY_CONNECTION", err)
	}
}

func TestOpenUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Open(ctx, "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1")
	if !errs.Is(err, errs.ErrCodeRegistryConnection) {
		t.Errorf("Open(unreachable) error = %v, want REGISTRY_CONNECTION", err)
	}
}

// TestDump runs against a real crates.io dump; set DATABASE_URL to enable it.
func TestDump(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" || testing.Short() {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	r, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	versions, err := r.ListVersions(ctx, "serde")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) == 0 {
		t.Fatal("serde should have versions")
	}

	missing, err := r.ListVersions(ctx, "this-crate-does-not-exist-42")
	if err != nil || len(missing) != 0 {
		t.Errorf("unknown crate: %v, %v", missing, err)
	}

	deps, err := r.ListDependencies(ctx, "serde_json", "1.0.0", registry.Kinds{registry.KindNormal})
	if err != nil {
		t.Fatalf("ListDependencies: %v", err)
	}
	for _, d := range deps {
		if d.Kind != registry.KindNormal {
			t.Errorf("dependency %s has kind %s", d.Name, d.Kind)
		}
	}
}
