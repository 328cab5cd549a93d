// Package crates provides an HTTP client for the crates.io API.
//
// # Usage
//
//	client := crates.NewClient(cache.NewNullCache(), 24*time.Hour)
//
//	versions, err := client.FetchVersions(ctx, "serde", false)
//	deps, err := client.FetchDependencies(ctx, "serde", "1.0.193", false)
//
// Versions are returned as published, yanked ones flagged. Dependencies are
// returned for every kind; filtering belongs to the caller.
//
// # Pagination
//
// Newer crates.io deployments paginate the versions endpoint and report the
// next page in meta.next_page. [Client.FetchVersions] follows it until the
// list is exhausted.
//
// # Caching
//
// Responses are cached under the "crates" namespace. Pass refresh=true to
// bypass the cache.
package crates
