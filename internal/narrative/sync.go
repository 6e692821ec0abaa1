package narrative

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talgya/worldweaver/internal/llm"
	"github.com/talgya/worldweaver/internal/logbook"
)

// SyncTask is a belongings update running after a turn. It owns the
// generation gate until it finishes.
type SyncTask struct {
	done       chan struct{}
	belongings string
	err        error
}

// Done is closed once the belongings are written and the gate is free.
func (t *SyncTask) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes and returns the belongings now on the
// story. The error reports a failed update whose previous belongings were
// kept, or ctx ending first.
func (t *SyncTask) Wait(ctx context.Context) (string, error) {
	select {
	case <-t.done:
		return t.belongings, t.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// startSync launches the belongings update for in. The caller must hold the
// gate; ownership passes to the task.
func (e *Engine) startSync(ctx context.Context, in llm.BelongingsContext) *SyncTask {
	t := &SyncTask{done: make(chan struct{})}

	e.mu.Lock()
	e.pending = t
	e.mu.Unlock()

	// Act has already returned to its caller when this runs.
	ctx = context.WithoutCancel(ctx)

	entry := e.log.Generating("Updating belongings...")
	go func() {
		defer close(t.done)
		defer e.gate.Exit()

		text, err := e.gen.Generate(ctx, llm.BelongingsPrompt(in), llm.BelongingsSyncTokens)
		if err != nil {
			slog.Warn("belongings update failed", "error", err)
			t.err = fmt.Errorf("update belongings: %w", err)
			text = in.PreviousBelongings
			e.log.Update(entry, logbook.KindWarning, "Could not update belongings, keeping the previous ones.")
		} else {
			e.log.Update(entry, logbook.KindSuccess, "Updated belongings.")
		}
		t.belongings = text

		e.mu.Lock()
		e.rec.Story.Belongings = text
		snap := e.rec.Clone()
		e.mu.Unlock()
		e.snapshot(snap)
	}()
	return t
}
