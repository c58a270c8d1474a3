// Package ingest accumulates a target number of valid teams from a paginated
// upstream.
//
// The Ingester walks limit/offset windows strictly in increasing offset order
// and one at a time. Each window asks for exactly the number of teams still
// missing. Teams without a crest are dropped; the next offset advances by the
// raw page size, not by the number kept, because the offset indexes the
// upstream list.
//
// Example usage:
//
//	client, _ := football.New(football.DefaultConfig(apiKey))
//	ingester := ingest.NewIngester(client, ingest.DefaultConfig())
//	list, err := ingester.Ingest(ctx, 1000, existing)
//
// A run stops when:
//   - the target is reached
//   - upstream returns an empty page or a window fails (partial result, nil error)
//   - Config.MaxWindows windows have been fetched (partial result, nil error)
//   - ctx is cancelled (partial result, ctx error)
package ingest
