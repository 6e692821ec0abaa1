// Package session wires one player's world-building and narration together
// around a shared generation gate and progress log.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/worldweaver/internal/config"
	"github.com/talgya/worldweaver/internal/entropy"
	"github.com/talgya/worldweaver/internal/gate"
	"github.com/talgya/worldweaver/internal/llm"
	"github.com/talgya/worldweaver/internal/logbook"
	"github.com/talgya/worldweaver/internal/mechanics"
	"github.com/talgya/worldweaver/internal/narrative"
	"github.com/talgya/worldweaver/internal/persistence"
	"github.com/talgya/worldweaver/internal/world"
)

var (
	ErrNoWorld          = errors.New("world has not been built")
	ErrNarrationStarted = errors.New("world is locked once narration starts")
)

// Session is the context object for one player. Journal may be nil.
type Session struct {
	ID  string
	Log *logbook.Log

	gate     *gate.Gate
	pipeline *world.Pipeline
	engine   *narrative.Engine
	journal  *persistence.Journal
	seed     string

	mu       sync.Mutex
	rec      world.Record
	narrated bool
}

// New creates a session generating with gen and rolling with src.
func New(gen llm.Generator, src entropy.Source, cfg config.Config, journal *persistence.Journal) (*Session, error) {
	roller, err := mechanics.NewRoller(src, cfg.LuckMean, cfg.DifficultySpread)
	if err != nil {
		return nil, fmt.Errorf("new roller: %w", err)
	}

	graph := world.DefaultGraph()
	if cfg.RecomputePopulationOnPowers {
		graph.SetPolicy(world.Powers, world.Population, world.ClearAndRecompute)
	}

	s := &Session{
		ID:      uuid.NewString(),
		Log:     logbook.New(),
		gate:    &gate.Gate{},
		journal: journal,
		seed:    cfg.NarrativeSeed,
	}
	s.pipeline = world.NewPipeline(gen, s.gate, s.Log, graph)
	s.pipeline.OnSnapshot = s.recordWorld
	s.engine = narrative.NewEngine(gen, s.gate, s.Log, roller, mechanics.NewTracker(cfg.InitialScore))
	s.engine.OnSnapshot = s.recordWorld
	s.engine.OnSituation = s.recordSituation
	s.Log.Subscribe(s.recordLog)

	slog.Info("session created", "id", s.ID, "luck", cfg.LuckMean, "spread", cfg.DifficultySpread)
	return s, nil
}

// BuildWorld runs the full world-building pipeline on the player's idea.
func (s *Session) BuildWorld(ctx context.Context, idea string) (world.Record, error) {
	if s.isNarrated() {
		return s.World(), ErrNarrationStarted
	}
	rec, err := s.pipeline.Build(ctx, idea)
	if err != nil {
		return s.World(), err
	}
	s.setRecord(rec)
	return rec, nil
}

// Regenerate re-runs the named world field and its dependents.
func (s *Session) Regenerate(ctx context.Context, name string) (world.Record, error) {
	f, err := world.ParseField(name)
	if err != nil {
		s.Log.Warn(fmt.Sprintf("Invalid step specified: %s", name))
		return s.World(), err
	}
	if s.isNarrated() {
		return s.World(), ErrNarrationStarted
	}
	cur := s.World()
	if cur.UserInput == "" {
		return cur, ErrNoWorld
	}

	rec, err := s.pipeline.Regenerate(ctx, cur, f)
	if err != nil {
		return cur, err
	}
	s.setRecord(rec)
	return rec, nil
}

// StartNarration prepares the scenario and returns the introduction. A blank
// seed uses the configured one, then the default.
func (s *Session) StartNarration(ctx context.Context, seed string) (world.Situation, error) {
	cur := s.World()
	if cur.UserInput == "" {
		return world.Situation{}, ErrNoWorld
	}
	if seed == "" {
		seed = s.seed
	}

	rec, err := s.engine.Begin(ctx, cur, seed)
	if err != nil {
		return world.Situation{}, err
	}
	s.mu.Lock()
	s.rec = rec
	s.narrated = true
	s.mu.Unlock()

	intro, _ := s.engine.Current()
	return intro, nil
}

// Act plays one turn.
func (s *Session) Act(ctx context.Context, action string) (world.Situation, *narrative.SyncTask, error) {
	return s.engine.Act(ctx, action)
}

// Wait blocks until any belongings update has finished.
func (s *Session) Wait(ctx context.Context) error {
	return s.engine.Wait(ctx)
}

// Narration exposes the story state.
func (s *Session) Narration() *narrative.Engine {
	return s.engine
}

// Busy reports whether a generation is running.
func (s *Session) Busy() bool {
	return s.gate.Busy()
}

// World returns a copy of the current record, including the story once
// narration has started.
func (s *Session) World() world.Record {
	if s.isNarrated() {
		return s.engine.Record()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Clone()
}

func (s *Session) isNarrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.narrated
}

func (s *Session) setRecord(rec world.Record) {
	s.mu.Lock()
	s.rec = rec
	s.mu.Unlock()
}

func (s *Session) recordWorld(rec world.Record) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordWorld(s.ID, rec); err != nil {
		slog.Warn("journal world snapshot", "session", s.ID, "error", err)
	}
}

func (s *Session) recordSituation(idx int, sit world.Situation) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordSituation(s.ID, idx, sit); err != nil {
		slog.Warn("journal situation", "session", s.ID, "index", idx, "error", err)
	}
}

func (s *Session) recordLog(e logbook.Entry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordLog(s.ID, e); err != nil {
		slog.Warn("journal log entry", "session", s.ID, "error", err)
	}
}
