// Package session drives paginated lead acquisition against a source
// connector, with checkpoint/resume, history dedup, per-item retry, and
// bounded human-intervention pauses.
package session

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// ErrEndOfResults is returned by Session.NextPage when the source has no
// further pages for the query.
var ErrEndOfResults = eris.New("session: end of results")

// ErrChallenge is returned by a connector when the source raised a security
// challenge that requires an operator. The controller converts it into a
// bounded awaiting-intervention pause.
var ErrChallenge = eris.New("session: security challenge")

// Connector opens acquisition sessions against one source. Implementations
// live in internal/connector; browser automation and login flows stay behind
// this boundary.
type Connector interface {
	Name() string
	Open(ctx context.Context, query model.Query) (Session, error)
}

// Session is a stateful page cursor over one query's results.
type Session interface {
	// NextPage advances the cursor and returns the next batch of raw
	// records. Returns ErrEndOfResults when exhausted and ErrChallenge when
	// the source demands operator intervention.
	NextPage(ctx context.Context) ([]model.RawRecord, error)

	// FetchDetail retrieves the full record for one item reference.
	FetchDetail(ctx context.Context, ref string) (model.RawRecord, error)

	// Refresh re-requests the current page without advancing, used once per
	// session when a page unexpectedly yields zero items.
	Refresh(ctx context.Context) error

	Close() error
}
