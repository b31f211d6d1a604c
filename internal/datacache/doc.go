// Package datacache coordinates keyed, authorized fetches of portal
// resources.
//
// # Keys
//
// A Key is an endpoint plus optional extra parts. Two keys are the same
// entry when their serialized forms match. The null key never fetches, which
// is how a screen waits for a route id or a valid date range.
//
// # Fetch lifecycle
//
// Subscribe admits a key only when the session is ready at that moment.
// Concurrent subscribers share one request per key generation through
// singleflight, and an entry that succeeded within the dedupe interval is
// served from memory. Failures are retried up to the policy's attempt count
// with exponential backoff, except ErrUnauthorized, which ends the fetch at
// once. The last good payload stays next to a later error.
//
// Mutate bumps the entry's generation, clears it and refetches for current
// subscribers. A fetch that finishes for an old generation is dropped. There
// is no background or focus revalidation.
package datacache
