package deps

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	errs "github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

const cargoToml = `
[package]
name = "demo"
version = "0.4.2"
edition = "2021"

[dependencies]
anyhow = "1.0"
tokio = { version = "1", features = ["full"] }
shared = { workspace = true }

[dependencies.serde]
version = "1.0"
features = ["derive"]
optional = true

[build-dependencies]
cc = "1.0"

[target.'cfg(unix)'.dependencies]
libc = "0.2"

[dev-dependencies]
rand = { git = "https://github.com/rust-random/rand" }
`

func TestParseManifestData(t *testing.T) {
	m, err := ParseManifestData([]byte(cargoToml))
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "demo" || m.Version != "0.4.2" {
		t.Errorf("package = %s %s", m.Name, m.Version)
	}

	want := []registry.Dependency{
		{Name: "anyhow", Requirement: "1.0", Kind: registry.KindNormal},
		{Name: "tokio", Requirement: "1", Kind: registry.KindNormal},
		{Name: "serde", Requirement: "1.0", Kind: registry.KindNormal, Optional: true},
		{Name: "cc", Requirement: "1.0", Kind: registry.KindBuild},
		{Name: "libc", Requirement: "0.2", Kind: registry.KindNormal},
	}
	if !slices.Equal(m.Dependencies, want) {
		t.Errorf("Dependencies =\n%+v\nwant\n%+v", m.Dependencies, want)
	}
	if !slices.Equal(m.Ignored, []string{"shared", "rand"}) {
		t.Errorf("Ignored = %v", m.Ignored)
	}
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid toml", "[package\nname ="},
		{"virtual workspace", "[workspace]\nmembers = [\"a\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseManifestData([]byte(tt.data)); !errs.Is(err, errs.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestParseManifestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	if err := os.WriteFile(path, []byte("[package]\nname = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := ParseManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "x" || m.Version != "0.0.0" {
		t.Errorf("got %s %s", m.Name, m.Version)
	}

	if _, err := ParseManifest(filepath.Join(dir, "missing.toml")); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("missing file: err = %v", err)
	}
}
