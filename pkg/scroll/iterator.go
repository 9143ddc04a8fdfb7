package scroll

import (
	"context"
	"iter"
	"log/slog"
)

// State is the lifecycle position of an Iterator.
type State int

const (
	// StateUninitialized means no request has been issued yet.
	StateUninitialized State = iota
	// StateActive means a cursor is held and more pages may follow.
	StateActive
	// StateExhausted means the backend returned an empty page. It is final.
	StateExhausted
	// StateFailed means a request failed. The iterator must be discarded.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Option configures an Iterator.
type Option func(*Iterator)

// WithPageSize sets the page-size hint sent with the open request.
// Non-positive values are ignored.
func WithPageSize(n int) Option {
	return func(it *Iterator) {
		if n > 0 {
			it.pageSize = n
		}
	}
}

// WithLogger sets the logger used for page-level debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(it *Iterator) {
		if logger != nil {
			it.logger = logger
		}
	}
}

// Iterator yields the hits of a scroll cursor one at a time, fetching pages
// lazily. It is single-pass and must not be used from multiple goroutines.
type Iterator struct {
	client   Client
	host     string
	index    string
	pageSize int
	logger   *slog.Logger

	state  State
	cursor string
	buf    []Hit
	err    error
	pages  int
}

// New returns an Iterator over index on host. No request is made until the
// first call to Next.
func New(client Client, host, index string, opts ...Option) *Iterator {
	it := &Iterator{
		client:   client,
		host:     host,
		index:    index,
		pageSize: DefaultPageSize,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// State returns the current lifecycle state.
func (it *Iterator) State() State { return it.state }

// Cursor returns the most recent cursor, or "" before the first page.
func (it *Iterator) Cursor() string { return it.cursor }

// Next returns the next hit. ok is false once the backend is exhausted; every
// later call returns false without contacting the backend. A non-nil error
// is fatal and is returned again by every later call.
func (it *Iterator) Next(ctx context.Context) (hit Hit, ok bool, err error) {
	switch it.state {
	case StateExhausted:
		return Hit{}, false, nil
	case StateFailed:
		return Hit{}, false, it.err
	case StateActive:
		if len(it.buf) > 0 {
			return it.pop(), true, nil
		}
	}

	var page Page
	if it.state == StateUninitialized {
		page, err = it.client.Open(ctx, it.host, it.index, it.pageSize)
	} else {
		page, err = it.client.Advance(ctx, it.host, it.cursor)
	}
	if err != nil {
		it.state = StateFailed
		it.err = err
		it.buf = nil
		return Hit{}, false, err
	}

	it.pages++
	it.logger.Debug("fetched scroll page",
		slog.Int("page", it.pages),
		slog.Int("hits", len(page.Hits)),
	)

	// Cursors may change between pages; always keep the latest.
	it.cursor = page.Cursor

	if len(page.Hits) == 0 {
		it.state = StateExhausted
		it.buf = nil
		return Hit{}, false, nil
	}

	it.state = StateActive
	it.buf = page.Hits
	return it.pop(), true, nil
}

func (it *Iterator) pop() Hit {
	h := it.buf[0]
	it.buf[0] = Hit{}
	it.buf = it.buf[1:]
	return h
}

// All adapts Next for range loops. Iteration stops after the first error,
// which is yielded with a zero Hit.
func (it *Iterator) All(ctx context.Context) iter.Seq2[Hit, error] {
	return func(yield func(Hit, error) bool) {
		for {
			hit, ok, err := it.Next(ctx)
			if err != nil {
				yield(Hit{}, err)
				return
			}
			if !ok {
				return
			}
			if !yield(hit, nil) {
				return
			}
		}
	}
}

// Close releases the server-side cursor when the client supports it. The
// iterator is exhausted afterwards.
func (it *Iterator) Close(ctx context.Context) error {
	cursor := it.cursor
	if it.state != StateFailed {
		it.state = StateExhausted
	}
	it.buf = nil

	c, ok := it.client.(Clearer)
	if !ok || cursor == "" {
		return nil
	}
	it.cursor = ""
	return c.Clear(ctx, it.host, cursor)
}
