// Package httputil provides retry helpers for registry HTTP clients.
//
// # Retry
//
// [Retry] and [Policy.Do] re-run an operation when it fails with a
// [RetryableError]:
//
//   - network errors
//   - 5xx server errors
//   - 429 rate limit responses, honoring Retry-After via [RetryAfter]
//
// Any other error is returned immediately. Waits grow exponentially from
// the policy's initial delay and are capped by MaxDelay:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return client.Get(ctx, url, &out)
//	})
//
// # Configuration
//
// [DefaultPolicy] makes 3 attempts starting at a 1 second delay. The
// [http] section of the config file overrides both values.
//
// [http]: github.com/matzehuels/cratedeps/pkg/config
package httputil
