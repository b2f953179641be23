// Package provider implements the upstream data-source clients and the
// session-scoped fetch cache screening runs read through.
package provider

import (
	"context"
	"fmt"
)

// Key identifies one fetch: the subject, the provider, and the screening
// window. Two fetches with the same key within one session share one upstream
// call and one outcome.
type Key struct {
	SubjectID   string
	ProviderID  string
	WindowStart string
	WindowEnd   string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s..%s", k.ProviderID, k.SubjectID, k.WindowStart, k.WindowEnd)
}

// Fetcher retrieves the payload of one provider for a subject and window.
type Fetcher interface {
	ProviderID() string
	Fetch(ctx context.Context, key Key) (interface{}, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc struct {
	ID string
	Fn func(ctx context.Context, key Key) (interface{}, error)
}

func (f FetcherFunc) ProviderID() string { return f.ID }

func (f FetcherFunc) Fetch(ctx context.Context, key Key) (interface{}, error) {
	return f.Fn(ctx, key)
}
