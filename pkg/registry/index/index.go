// Package index implements a registry over the crates.io index format, read
// either from a local checkout of the index repository or from the sparse
// HTTP index.
//
// Every crate has one file holding one JSON object per published version:
//
//	{"name":"foo","vers":"1.0.0","deps":[{"name":"bar","req":"^2","kind":"normal"}],"yanked":false}
//
// Files live under a path derived from the lowercased crate name; see [Path].
package index

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cratedeps/pkg/integrations"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

// Name identifies this backend in cache keys and metrics.
const Name = "index"

// SparseURL is the crates.io sparse index.
const SparseURL = "https://index.crates.io"

// Options configures the index registry.
type Options struct {
	// IncludeYanked keeps yanked versions in ListVersions.
	IncludeYanked bool
	Logger        *log.Logger
}

// Registry reads crate files from a [Source] and keeps each parsed file for
// the lifetime of the registry.
type Registry struct {
	src  Source
	opts Options

	mu      sync.Mutex
	entries map[string][]entry
}

// Source fetches the raw index file of a crate. It returns (nil, nil) when
// the crate does not exist.
type Source interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// New creates an index registry over src.
func New(src Source, opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Registry{src: src, opts: opts, entries: make(map[string][]entry)}
}

// Open picks a source from location: an http(s) URL selects the sparse
// index, anything else is treated as a local checkout directory.
func Open(location string, client *integrations.Client, opts Options) (*Registry, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return New(&SparseSource{BaseURL: location, Client: client}, opts), nil
	}
	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open index: %s is not a directory", location)
	}
	return New(DirSource(location), opts), nil
}

// Path returns the index file path of crate relative to the index root.
func Path(crate string) string {
	name := strings.ToLower(crate)
	switch len(name) {
	case 0:
		return ""
	case 1:
		return "1/" + name
	case 2:
		return "2/" + name
	case 3:
		return "3/" + name[:1] + "/" + name
	default:
		return name[:2] + "/" + name[2:4] + "/" + name
	}
}

// Name returns "index".
func (r *Registry) Name() string { return Name }

// ListVersions returns the versions in file order, yanked ones dropped
// unless configured otherwise.
func (r *Registry) ListVersions(ctx context.Context, crate string) ([]string, error) {
	entries, err := r.load(ctx, crate)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Yanked && !r.opts.IncludeYanked {
			continue
		}
		versions = append(versions, e.Vers)
	}
	return versions, nil
}

// ListDependencies returns the dependencies of crate@version whose kind is
// in kinds. Renamed dependencies are reported under their real crate name.
func (r *Registry) ListDependencies(ctx context.Context, crate, version string, kinds registry.Kinds) ([]registry.Dependency, error) {
	entries, err := r.load(ctx, crate)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Vers != version {
			continue
		}
		var out []registry.Dependency
		for _, d := range e.Deps {
			kind, err := registry.ParseKind(d.Kind)
			if err != nil {
				r.opts.Logger.Debug("skipping dependency with unknown kind", "crate", crate, "dep", d.Name, "kind", d.Kind)
				continue
			}
			if !kinds.Contains(kind) {
				continue
			}
			name := d.Name
			if d.Package != "" {
				name = d.Package
			}
			out = append(out, registry.Dependency{
				Name:        name,
				Requirement: d.Req,
				Kind:        kind,
				Optional:    d.Optional,
			})
		}
		return out, nil
	}
	return nil, nil
}

// Close drops the parsed files.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
	return nil
}

type entry struct {
	Name   string     `json:"name"`
	Vers   string     `json:"vers"`
	Deps   []depEntry `json:"deps"`
	Yanked bool       `json:"yanked"`
}

type depEntry struct {
	Name     string `json:"name"`
	Req      string `json:"req"`
	Kind     string `json:"kind"`
	Optional bool   `json:"optional"`
	Package  string `json:"package"`
}

func (r *Registry) load(ctx context.Context, crate string) ([]entry, error) {
	key := strings.ToLower(crate)

	r.mu.Lock()
	cached, ok := r.entries[key]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	data, err := r.src.Fetch(ctx, Path(crate))
	if err != nil {
		return nil, fmt.Errorf("fetch index file of %s: %w", crate, err)
	}
	entries, err := r.parse(crate, data)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.entries[key] = entries
	r.mu.Unlock()
	return entries, nil
}

// parse decodes one index file. Lines that fail to decode are logged and
// skipped, like malformed versions.
func (r *Registry) parse(crate string, data []byte) ([]entry, error) {
	var entries []entry
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			r.opts.Logger.Warn("skipping malformed index line", "crate", crate, "err", err)
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read index file of %s: %w", crate, err)
	}
	return entries, nil
}

// DirSource reads crate files from a local checkout of the index.
type DirSource string

// Fetch reads the file at path under the checkout root.
func (d DirSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(string(d), filepath.FromSlash(path)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// SparseSource fetches crate files from a sparse HTTP index.
type SparseSource struct {
	BaseURL string
	Client  *integrations.Client
}

// Fetch downloads the file at path through the client's cache and retry
// policy. A 404 means the crate does not exist.
func (s *SparseSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	url := strings.TrimSuffix(s.BaseURL, "/") + "/" + path
	var text string
	err := s.Client.Cached(ctx, "index:"+path, false, &text, func() error {
		var err error
		text, err = s.Client.GetText(ctx, url)
		return err
	})
	if errors.Is(err, integrations.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}
