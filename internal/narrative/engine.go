// Package narrative runs the adventure once the world is built: an
// introduction, turns resolved by dice, and an ending.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/worldweaver/internal/gate"
	"github.com/talgya/worldweaver/internal/llm"
	"github.com/talgya/worldweaver/internal/logbook"
	"github.com/talgya/worldweaver/internal/mechanics"
	"github.com/talgya/worldweaver/internal/world"
)

// DefaultSeed is the narrative idea used when the player gives none.
const DefaultSeed = "A quest about finding the artefact and defeating the villain"

var (
	ErrNotStarted     = errors.New("narration has not started")
	ErrAlreadyStarted = errors.New("narration already started")
	ErrStoryEnded     = errors.New("story has ended")
	ErrEmptyAction    = errors.New("action is empty")
)

// State is the position of the story in its lifecycle.
type State uint8

const (
	StateIntroduction State = iota
	StateOngoing
	StateEnd
)

func (s State) String() string {
	switch s {
	case StateIntroduction:
		return "introduction"
	case StateOngoing:
		return "ongoing"
	case StateEnd:
		return "end"
	}
	return fmt.Sprintf("State(%d)", s)
}

// Engine owns the story of one session. Situations are append-only and the
// current pointer always refers to the last one.
type Engine struct {
	gate    *gate.Gate
	log     *logbook.Log
	gen     llm.Generator
	runner  world.Runner
	roller  *mechanics.Roller
	tracker *mechanics.Tracker

	// OnSituation receives every situation that is created or resolved,
	// with its index in the history.
	OnSituation func(index int, s world.Situation)
	// OnSnapshot receives the record after each scenario stage, after the
	// introduction and after every belongings update.
	OnSnapshot func(world.Record)

	mu      sync.Mutex
	rec     world.Record
	current int
	state   State
	started bool
	pending *SyncTask
}

// NewEngine creates an Engine sharing g with the world-building pipeline.
func NewEngine(gen llm.Generator, g *gate.Gate, log *logbook.Log, roller *mechanics.Roller, tracker *mechanics.Tracker) *Engine {
	e := &Engine{gate: g, log: log, gen: gen, roller: roller, tracker: tracker}
	e.runner = world.Runner{Gen: gen, Log: log, OnStage: e.snapshot}
	return e
}

// Begin prepares the scenario on top of rec and generates the introduction.
// A blank seed falls back to DefaultSeed.
func (e *Engine) Begin(ctx context.Context, rec world.Record, seed string) (world.Record, error) {
	if !e.enter() {
		return rec, gate.ErrBusy
	}
	defer e.gate.Exit()

	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	if started {
		return rec, ErrAlreadyStarted
	}

	seed = strings.TrimSpace(seed)
	if seed == "" {
		seed = DefaultSeed
	}

	rec = rec.Clone()
	rec.Story = &world.Story{UserInput: seed}
	rec, results := e.runner.Run(ctx, rec, world.ScenarioStages)
	for _, r := range results {
		if !r.OK() {
			slog.Warn("scenario stage fell back", "field", r.Field, "error", r.Err)
		}
	}

	intro := world.Situation{Content: e.generate(ctx, "introduction situation",
		llm.IntroductionPrompt(rec.PromptContext()), llm.FallbackIntroduction)}
	rec.Story.Situations = append(rec.Story.Situations, intro)

	e.mu.Lock()
	e.rec = rec
	e.current = 0
	e.state = StateIntroduction
	e.started = true
	out := e.rec.Clone()
	e.mu.Unlock()

	slog.Info("narration started", "seed", seed, "score", e.Score())
	e.emit(0, intro)
	e.snapshot(out)
	return out, nil
}

// Act resolves the current situation with the player's action and appends
// the next one. It returns once the pointer has advanced; the returned task
// keeps the gate until the belongings update finishes. Every other exit,
// including a panic, releases the gate here.
func (e *Engine) Act(ctx context.Context, action string) (world.Situation, *SyncTask, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return world.Situation{}, nil, ErrEmptyAction
	}

	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	if !started {
		return world.Situation{}, nil, ErrNotStarted
	}

	if !e.enter() {
		cur, _ := e.Current()
		return cur, nil, gate.ErrBusy
	}
	handedOff := false
	defer func() {
		if !handedOff {
			e.gate.Exit()
		}
	}()

	// State only changes under the gate, so this check holds for the turn.
	e.mu.Lock()
	if e.state == StateEnd {
		cur := e.rec.Story.Situations[e.current]
		e.mu.Unlock()
		return cur, nil, ErrStoryEnded
	}
	e.mu.Unlock()

	roll := e.roller.Roll()

	e.mu.Lock()
	score, done := e.tracker.Advance(roll)
	idx := e.current
	resolved := e.rec.Story.Situations[idx].Resolve(action, roll)
	e.rec.Story.Situations[idx] = resolved
	turn := llm.TurnContext{
		Outcome:           roll,
		Score:             score,
		WorldType:         e.rec.WorldType,
		Storyline:         e.rec.Story.Storyline,
		PreviousSituation: resolved.Content,
		Action:            action,
		Belongings:        e.rec.Story.Belongings,
		PowerSystem:       e.rec.PowerSystem,
	}
	syncIn := llm.BelongingsContext{
		WorldType:          e.rec.WorldType,
		PreviousBelongings: e.rec.Story.Belongings,
		Situation:          resolved.Content,
		PowerSystem:        e.rec.PowerSystem,
	}
	e.mu.Unlock()
	e.emit(idx, resolved)

	var next world.Situation
	if done {
		next.Content = e.generate(ctx, "end situation", llm.EndSituationPrompt(turn), llm.FallbackEnd)
	} else {
		e.log.Info(fmt.Sprintf("Success roll: %d", roll))
		next.Content = e.generate(ctx, "next situation", llm.NextSituationPrompt(turn), llm.FallbackSituation)
	}

	e.mu.Lock()
	e.rec.Story.Situations = append(e.rec.Story.Situations, next)
	e.current = len(e.rec.Story.Situations) - 1
	if done {
		e.state = StateEnd
	} else {
		e.state = StateOngoing
	}
	nextIdx, state := e.current, e.state
	e.mu.Unlock()

	slog.Info("turn resolved", "turn", humanize.Ordinal(idx+1), "roll", roll, "score", score, "state", state)
	if done {
		e.log.Success(fmt.Sprintf("The story ends after the %s turn.", humanize.Ordinal(idx+1)))
	}
	e.emit(nextIdx, next)

	task := e.startSync(ctx, syncIn)
	handedOff = true
	return next, task, nil
}

// Current returns the situation the player is facing.
func (e *Engine) Current() (world.Situation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return world.Situation{}, false
	}
	return e.rec.Story.Situations[e.current], true
}

// Situations returns a copy of the history, oldest first.
func (e *Engine) Situations() []world.Situation {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec.Story == nil {
		return nil
	}
	out := make([]world.Situation, len(e.rec.Story.Situations))
	copy(out, e.rec.Story.Situations)
	return out
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Score returns the progress score.
func (e *Engine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Score()
}

// Record returns a copy of the world record including the story.
func (e *Engine) Record() world.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec.Clone()
}

// Wait blocks until the latest belongings update has finished or ctx ends.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	t := e.pending
	e.mu.Unlock()
	if t == nil {
		return nil
	}
	select {
	case <-t.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// generate produces situation text, substituting fallback on failure so the
// story always advances.
func (e *Engine) generate(ctx context.Context, what string, prompt []llm.Message, fallback string) string {
	entry := e.log.Generating(fmt.Sprintf("Generating %s...", what))
	text, err := e.gen.Generate(ctx, prompt, llm.SituationTokens)
	if err != nil {
		slog.Warn("situation generation failed", "situation", what, "error", err)
		e.log.Update(entry, logbook.KindWarning, fmt.Sprintf("Could not generate %s, continuing anyway.", what))
		return fallback
	}
	e.log.Update(entry, logbook.KindSuccess, fmt.Sprintf("Generated %s.", what))
	return text
}

func (e *Engine) enter() bool {
	if e.gate.TryEnter() {
		return true
	}
	e.log.Warn("Generation is already in progress.")
	return false
}

func (e *Engine) emit(idx int, s world.Situation) {
	if e.OnSituation != nil {
		e.OnSituation(idx, s)
	}
}

func (e *Engine) snapshot(rec world.Record) {
	if e.OnSnapshot != nil {
		e.OnSnapshot(rec)
	}
}
