// Package integrations provides HTTP clients for crate registry APIs.
//
// # Overview
//
// The [crates] subpackage talks to the crates.io web API. The sparse index
// registry in [index] uses [Client.GetText] directly, since the index is
// plain newline-delimited JSON rather than an API.
//
// # Shared Infrastructure
//
// The [Client] type provides:
//   - HTTP response caching via [cache.Cache] with a per-client namespace
//   - retries of 429 and 5xx responses under an [httputil.Policy]
//   - request and response events reported to [observability.HTTP]
//
// A 404 always surfaces as [ErrNotFound] so registries can map it to
// "crate has no versions" instead of a query failure.
//
// [crates]: github.com/matzehuels/cratedeps/pkg/integrations/crates
// [index]: github.com/matzehuels/cratedeps/pkg/registry/index
// [cache.Cache]: github.com/matzehuels/cratedeps/pkg/cache.Cache
// [httputil.Policy]: github.com/matzehuels/cratedeps/pkg/httputil.Policy
// [observability.HTTP]: github.com/matzehuels/cratedeps/pkg/observability.HTTP
package integrations
