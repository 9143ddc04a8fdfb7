// Package scroll turns a page-at-a-time cursor protocol into a lazy,
// one-document-at-a-time stream.
//
// The backend is abstracted by Client so the paging logic can run against
// scripted fakes; package elastic provides the HTTP implementation.
package scroll

import (
	"context"
	"fmt"
)

// DefaultPageSize is the page-size hint sent when opening a cursor.
const DefaultPageSize = 100

// Hit is one document returned by the backend.
type Hit struct {
	ID     string `json:"_id"`
	Index  string `json:"_index"`
	Source any    `json:"_source"`
}

// Page is one batch of hits plus the cursor for the next batch.
type Page struct {
	Cursor string
	Hits   []Hit
}

// Client performs the two cursor operations of the scroll protocol. Both
// block until the backend answers or ctx is done.
type Client interface {
	// Open starts a cursor over index and returns its first page.
	Open(ctx context.Context, host, index string, size int) (Page, error)
	// Advance fetches the page following cursor.
	Advance(ctx context.Context, host, cursor string) (Page, error)
}

// Clearer is implemented by clients that can release a server-side cursor.
type Clearer interface {
	Clear(ctx context.Context, host, cursor string) error
}

// ProtocolError reports a backend response that does not follow the scroll
// protocol, such as a missing cursor or hit list.
type ProtocolError struct {
	Op     string // "open" or "advance"
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scroll %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("scroll %s: %s", e.Op, e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// NetworkError reports a transport failure or an unsuccessful HTTP status.
type NetworkError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("scroll %s: backend returned status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("scroll %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
