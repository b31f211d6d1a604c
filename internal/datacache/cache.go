package datacache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrUnauthorized is returned by a Fetcher when the API answered 401 to an
// authorized call. It is never retried.
var ErrUnauthorized = errors.New("unauthorized access")

const defaultDedupeInterval = 2 * time.Second

//go:generate mockgen -destination=../mocks/fetcher_mock.go -package=mocks . Fetcher

// Fetcher performs one authorized fetch for a key.
type Fetcher interface {
	Fetch(ctx context.Context, key Key) (json.RawMessage, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, key Key) (json.RawMessage, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, key Key) (json.RawMessage, error) {
	return f(ctx, key)
}

// Readiness reports whether the session is authenticated and settled.
type Readiness interface {
	Ready() bool
}

// ReadyFunc adapts a function to Readiness.
type ReadyFunc func() bool

// Ready calls f.
func (f ReadyFunc) Ready() bool { return f() }

type alwaysReady struct{}

func (alwaysReady) Ready() bool { return true }

// Result is the observable state of one cache entry.
type Result struct {
	Data         json.RawMessage
	Err          error
	IsValidating bool
	FetchedAt    time.Time
}

// Settled reports whether the entry holds an outcome and no fetch is running.
func (r Result) Settled() bool {
	return !r.IsValidating && (r.Data != nil || r.Err != nil)
}

// Unauthorized reports whether the last fetch failed with a 401.
func (r Result) Unauthorized() bool {
	return errors.Is(r.Err, ErrUnauthorized)
}

// Decode unmarshals the result payload into T.
func Decode[T any](r Result) (T, error) {
	var out T
	if r.Data == nil {
		return out, fmt.Errorf("decode %T: no data", out)
	}
	if err := json.Unmarshal(r.Data, &out); err != nil {
		return out, fmt.Errorf("decode %T: %w", out, err)
	}
	return out, nil
}

// Options configure a Cache.
type Options struct {
	Readiness Readiness
	Retry     RetryPolicy
	// DedupeInterval suppresses refetching a key that succeeded this recently.
	// Zero uses the default; negative disables it.
	DedupeInterval time.Duration
	// Context scopes every fetch. Cancelling it aborts in-flight requests.
	Context context.Context
	Logger  *log.Logger
	// Now stamps successful fetches. Defaults to time.Now.
	Now func() time.Time
}

// Cache is a keyed fetch coordinator. One entry exists per serialized key and
// entries are never evicted. Concurrent subscribers of a key share a single
// request and receive the same result.
type Cache struct {
	fetcher Fetcher
	ready   Readiness
	retry   RetryPolicy
	dedupe  time.Duration
	ctx     context.Context
	logger  *log.Logger
	now     func() time.Time

	flights singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	key    Key
	result Result
	gen    uint64
	subs   map[*Subscription]struct{}
}

// New builds a Cache around fetcher.
func New(fetcher Fetcher, opts Options) *Cache {
	c := &Cache{
		fetcher: fetcher,
		ready:   opts.Readiness,
		retry:   opts.Retry.withDefaults(),
		dedupe:  opts.DedupeInterval,
		ctx:     opts.Context,
		logger:  opts.Logger,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
	if opts.Now != nil {
		c.now = opts.Now
	}
	if c.ready == nil {
		c.ready = alwaysReady{}
	}
	if c.dedupe == 0 {
		c.dedupe = defaultDedupeInterval
	}
	if c.ctx == nil {
		c.ctx = context.Background()
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// Subscribe observes key. A null key, or a session that is not ready at the
// moment of the call, yields an inert subscription that never fetches and
// whose result stays empty. Otherwise a fetch starts unless one is already in
// flight or the entry succeeded within the dedupe interval.
func (c *Cache) Subscribe(key Key) *Subscription {
	sub := &Subscription{cache: c, key: key, ch: make(chan Result, 1)}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Readiness is read once, under the same lock that admits the key.
	if key.IsNull() || !c.ready.Ready() {
		sub.key = NullKey
		return sub
	}

	e := c.entryLocked(key)
	e.subs[sub] = struct{}{}
	sub.current = e.result
	if !c.freshLocked(e) {
		c.revalidateLocked(e)
	}
	return sub
}

// Get subscribes to key, waits for the first settled result and releases the
// subscription. A null or not-ready key returns an empty result immediately.
func (c *Cache) Get(ctx context.Context, key Key) (Result, error) {
	sub := c.Subscribe(key)
	defer sub.Close()
	if sub.key.IsNull() {
		return Result{}, nil
	}
	if cur := sub.Current(); cur.Settled() {
		return cur, nil
	}
	for {
		select {
		case <-ctx.Done():
			return sub.Current(), ctx.Err()
		case r, ok := <-sub.C():
			if !ok {
				return sub.Current(), nil
			}
			if r.Settled() {
				return r, nil
			}
		}
	}
}

// Mutate invalidates key: the entry is cleared, any fetch already running for
// it will have its result discarded, and subscribers trigger an immediate
// refetch.
func (c *Cache) Mutate(key Key) {
	if key.IsNull() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return
	}
	e.gen++
	e.result = Result{}
	if len(e.subs) == 0 {
		return
	}
	c.revalidateLocked(e)
}

func (c *Cache) entryLocked(key Key) *entry {
	id := key.String()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: key, subs: make(map[*Subscription]struct{})}
		c.entries[id] = e
	}
	return e
}

func (c *Cache) freshLocked(e *entry) bool {
	if e.result.IsValidating {
		return true
	}
	if c.dedupe < 0 || e.result.Err != nil || e.result.FetchedAt.IsZero() {
		return false
	}
	return c.now().Sub(e.result.FetchedAt) < c.dedupe
}

func (c *Cache) revalidateLocked(e *entry) {
	e.result.IsValidating = true
	c.broadcastLocked(e)

	key := e.key
	gen := e.gen
	flight := key.String() + "#" + strconv.FormatUint(gen, 10)
	go func() {
		_, _, _ = c.flights.Do(flight, func() (any, error) {
			data, err := c.fetchWithRetry(c.ctx, key)
			c.apply(key, gen, data, err)
			return nil, nil
		})
	}()
}

func (c *Cache) fetchWithRetry(ctx context.Context, key Key) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		data, err := c.fetcher.Fetch(ctx, key)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if errors.Is(err, ErrUnauthorized) {
			return nil, err
		}
		if attempt == c.retry.MaxAttempts-1 {
			break
		}
		c.logger.Printf("fetch %s failed (attempt %d/%d): %v", describe(key), attempt+1, c.retry.MaxAttempts, err)
		if err := sleepContext(ctx, c.retry.Backoff(attempt)); err != nil {
			return nil, errors.Join(lastErr, err)
		}
	}
	return nil, lastErr
}

func (c *Cache) apply(key Key, gen uint64, data json.RawMessage, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok || e.gen != gen {
		return
	}
	e.result.IsValidating = false
	if err != nil {
		// Keep the last good payload alongside the error.
		e.result.Err = err
	} else {
		e.result.Data = data
		e.result.Err = nil
		e.result.FetchedAt = c.now()
	}
	c.broadcastLocked(e)
}

func (c *Cache) broadcastLocked(e *entry) {
	for sub := range e.subs {
		sub.deliverLocked(e.result)
	}
}

// Subscription is one consumer of a key. Results arrive on C; only the latest
// undelivered result is buffered.
type Subscription struct {
	cache   *Cache
	key     Key
	ch      chan Result
	current Result
	closed  bool
}

// Key returns the key this subscription observes, or the null key when the
// subscription is inert.
func (s *Subscription) Key() Key { return s.key }

// C delivers every change to the entry.
func (s *Subscription) C() <-chan Result { return s.ch }

// Current returns the latest result seen by the subscription.
func (s *Subscription) Current() Result {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	return s.current
}

// Mutate invalidates the subscription's key.
func (s *Subscription) Mutate() {
	s.cache.Mutate(s.key)
}

// Close stops delivery and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if !s.key.IsNull() {
		if e, ok := s.cache.entries[s.key.String()]; ok {
			delete(e.subs, s)
		}
	}
	close(s.ch)
}

func (s *Subscription) deliverLocked(r Result) {
	if s.closed {
		return
	}
	s.current = r
	select {
	case <-s.ch:
	default:
	}
	s.ch <- r
}
