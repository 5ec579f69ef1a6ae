// Package xtream provides a resilient data-access layer for an Xtream-codes
// IPTV provider: live/VOD/series catalogs and the XMLTV program guide.
//
// # Architecture
//
//   - Client: the request executor; retry with a fixed backoff schedule,
//     immediate abort on cancellation, one session refresh per 401
//   - SessionManager: authentication state, opaque token issuance with a
//     fixed validity window, periodic health check with debounced reconnect
//   - Service: high-level operations, each memoized through the TTL cache
//     with single-flight deduplication
//   - Types: payload structs for the player_api and xmltv endpoints
//   - Errors: sentinel errors plus StatusError for HTTP-level failures
//
// # Usage
//
//	st := store.NewMemoryStore()
//	svc, err := xtream.NewService(cfg, st, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc.Start(ctx)
//	defer svc.Close()
//
//	streams, err := svc.LiveStreams(ctx, "")
//	current, next, err := svc.CurrentAndNext(ctx, "news.example")
//
// Callers distinguish failure classes with errors.Is against
// ErrAuthentication, ErrConnection, and ErrSession; context cancellation is
// surfaced as-is and never retried.
package xtream
