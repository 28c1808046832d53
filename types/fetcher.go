package types

import "context"

/*
Fetcher is the contract between a caller and wherever its data comes from
(HTTP API, disk, computation).

The cache never calls a Fetcher itself. Callers that follow the
stale-while-revalidate pattern use one to produce the value they later
hand to Set. Errors returned here stay with the caller and never reach the cache.
*/
type Fetcher interface {
	Fetch(ctx context.Context, key string) (any, error)
}

// FetcherFunc lets an ordinary function act as a Fetcher.
type FetcherFunc func(ctx context.Context, key string) (any, error)

func (f FetcherFunc) Fetch(ctx context.Context, key string) (any, error) {
	return f(ctx, key)
}
