package feed

import "context"

// CacheInvalidator is the external collaborator §4.3 step 6 names: when new
// audio is downloaded, the retriever asks it to invalidate any CDN cache
// entries for the affected keys. The real invalidation call (e.g. a
// CloudFront or Fastly purge API) lives outside the core per §1's scope, so
// this is a thin interface with a no-op default.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, keys []string) error
}

// NoopInvalidator satisfies CacheInvalidator without contacting anything. It
// is the default when no CDN is configured for a site.
type NoopInvalidator struct{}

func (NoopInvalidator) Invalidate(ctx context.Context, keys []string) error { return nil }
