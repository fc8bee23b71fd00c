// Package httputil provides HTTP plumbing for upstream data sources.
//
// # Overview
//
// Loaders that talk to remote services (the subgraph action source) share
// two pieces of infrastructure:
//
//   - [Retry]: retry with exponential backoff for transient failures
//   - [NewTransport]: an http.RoundTripper that reports requests to the
//     observability hooks and flags transient failures
//
// # Retry
//
// [Retry] only retries errors wrapped in [RetryableError]:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    if err := fetch(ctx); err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    return nil
//	})
//
// # Transient failures
//
// Clients that wrap transport errors in their own types (GraphQL clients do)
// hide the cause from errors.As. [WithTransient] attaches a flag to the
// request context that the transport sets on network errors, 429 and 5xx
// responses, so callers can decide whether to retry without inspecting the
// client's error type:
//
//	ctx, transient := httputil.WithTransient(ctx)
//	err := client.Query(ctx, &q, vars)
//	if err != nil && transient.Load() {
//	    return httputil.Retryable(err)
//	}
package httputil
