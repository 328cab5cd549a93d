package crates

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/matzehuels/cratedeps/pkg/cache"
	"github.com/matzehuels/cratedeps/pkg/integrations"
)

// DefaultBaseURL is the crates.io web API root.
const DefaultBaseURL = "https://crates.io/api/v1"

// Version is one published version of a crate.
type Version struct {
	Num    string `json:"num"`
	Yanked bool   `json:"yanked"`
}

// Dependency is one declared dependency of a crate version as reported by
// crates.io. CrateID is the real crate name, even for renamed dependencies.
type Dependency struct {
	CrateID  string `json:"crate_id"`
	Req      string `json:"req"`
	Kind     string `json:"kind"`
	Optional bool   `json:"optional"`
}

// Client provides access to the crates.io registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a crates.io client with the given cache backend.
// The client sets the User-Agent header that crates.io requires.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	headers := map[string]string{"User-Agent": integrations.UserAgent}
	return &Client{
		Client:  integrations.NewClient(backend, "crates", cacheTTL, headers),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at a mirror or test server.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// FetchVersions lists every published version of crate, yanked ones
// included. Returns [integrations.ErrNotFound] if the crate doesn't exist.
func (c *Client) FetchVersions(ctx context.Context, crate string, refresh bool) ([]Version, error) {
	var versions []Version
	err := c.Cached(ctx, "versions:"+crate, refresh, &versions, func() error {
		versions = versions[:0]
		next := fmt.Sprintf("%s/crates/%s/versions", c.baseURL, url.PathEscape(crate))
		for next != "" {
			var page versionsResponse
			if err := c.Get(ctx, next, &page); err != nil {
				return wrapNotFound(err, crate)
			}
			versions = append(versions, page.Versions...)
			next = c.nextPage(crate, page.Meta.NextPage)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// FetchDependencies lists the declared dependencies of one crate version,
// all kinds included.
func (c *Client) FetchDependencies(ctx context.Context, crate, version string, refresh bool) ([]Dependency, error) {
	var deps []Dependency
	err := c.Cached(ctx, "deps:"+crate+"@"+version, refresh, &deps, func() error {
		u := fmt.Sprintf("%s/crates/%s/%s/dependencies", c.baseURL, url.PathEscape(crate), url.PathEscape(version))
		var data depsResponse
		if err := c.Get(ctx, u, &data); err != nil {
			return wrapNotFound(err, crate+"@"+version)
		}
		deps = data.Dependencies
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deps, nil
}

// nextPage resolves the query-only next_page link against the versions URL.
func (c *Client) nextPage(crate, next string) string {
	if next == "" {
		return ""
	}
	return fmt.Sprintf("%s/crates/%s/versions%s", c.baseURL, url.PathEscape(crate), next)
}

func wrapNotFound(err error, what string) error {
	if errors.Is(err, integrations.ErrNotFound) {
		return fmt.Errorf("%w: crate %s", err, what)
	}
	return err
}

type versionsResponse struct {
	Versions []Version `json:"versions"`
	Meta     struct {
		NextPage string `json:"next_page"`
	} `json:"meta"`
}

type depsResponse struct {
	Dependencies []Dependency `json:"dependencies"`
}
