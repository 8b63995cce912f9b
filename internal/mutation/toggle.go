// Package mutation applies boolean edition flags optimistically: the new value
// is shown first, committed to the backend, and reverted if the commit fails.
package mutation

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/shinee-collection/tracker-web/internal/observability"
)

// CommitFunc persists a flag value for an edition.
type CommitFunc func(ctx context.Context, editionID string, value bool) error

// Toggle binds a flag name to its backend write.
type Toggle struct {
	Name     string
	Commit   CommitFunc
	Reporter observability.Reporter
}

// Result describes one toggle attempt.
type Result struct {
	EditionID string
	Previous  bool
	Requested bool
	Shown     bool
	Err       error
}

// RolledBack reports whether the displayed value was reverted.
func (r Result) RolledBack() bool { return r.Err != nil }

// ErrNoCommit is returned when a Toggle has no backend write.
var ErrNoCommit = errors.New("mutation: toggle has no commit function")

// Apply flips the displayed value in view, commits it, and restores the
// previous value when the commit fails. view always holds the value to render
// once Apply returns.
func (t Toggle) Apply(ctx context.Context, editionID string, view *bool) Result {
	prev := *view
	next := !prev
	*view = next

	res := Result{EditionID: editionID, Previous: prev, Requested: next, Shown: next}
	err := ErrNoCommit
	if t.Commit != nil {
		err = t.Commit(ctx, editionID, next)
	}
	if err == nil {
		return res
	}

	*view = prev
	res.Shown = prev
	res.Err = err
	observability.FromContext(ctx).Error("flag update rolled back",
		zap.String("flag", t.Name),
		zap.String("edition_id", editionID),
		zap.Bool("requested", next),
		zap.Error(err),
	)
	if t.Reporter != nil && !errors.Is(err, context.Canceled) {
		t.Reporter.Report(ctx, err, map[string]string{"flag": t.Name, "edition_id": editionID})
	}
	return res
}
