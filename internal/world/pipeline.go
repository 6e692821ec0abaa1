package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talgya/worldweaver/internal/gate"
	"github.com/talgya/worldweaver/internal/llm"
	"github.com/talgya/worldweaver/internal/logbook"
)

// ErrEmptyInput is returned when world-building is started without an idea.
var ErrEmptyInput = errors.New("scenario idea is empty")

// Pipeline builds a Record stage by stage and regenerates single fields
// along with everything that depends on them.
type Pipeline struct {
	gate   *gate.Gate
	log    *logbook.Log
	graph  *Graph
	runner Runner

	// OnSnapshot receives the record after every stage, after fields are
	// cleared for regeneration, and when a run completes.
	OnSnapshot func(Record)
}

// NewPipeline creates a Pipeline. A nil graph uses DefaultGraph.
func NewPipeline(gen llm.Generator, g *gate.Gate, log *logbook.Log, graph *Graph) *Pipeline {
	if graph == nil {
		graph = DefaultGraph()
	}
	p := &Pipeline{gate: g, log: log, graph: graph}
	p.runner = Runner{Gen: gen, Log: log, OnStage: p.snapshot}
	return p
}

// Graph returns the dependency graph used for regeneration.
func (p *Pipeline) Graph() *Graph {
	return p.graph
}

// Build starts a new record from the user's idea and runs every stage.
func (p *Pipeline) Build(ctx context.Context, userInput string) (Record, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return Record{}, ErrEmptyInput
	}
	return p.Run(ctx, Record{UserInput: userInput})
}

// Run executes all six world stages on rec. Stage failures never fail the
// run; the affected field is left empty.
func (p *Pipeline) Run(ctx context.Context, rec Record) (Record, error) {
	if !p.enter() {
		return rec, gate.ErrBusy
	}
	defer p.gate.Exit()

	return p.run(ctx, rec, WorldFields), nil
}

// Regenerate clears f and its dependents and re-runs the stages the graph
// prescribes. The record comes back unchanged when the gate is busy or f is
// not a world field.
func (p *Pipeline) Regenerate(ctx context.Context, rec Record, f Field) (Record, error) {
	if !p.enter() {
		return rec, gate.ErrBusy
	}
	defer p.gate.Exit()

	cleared, rerun, err := p.graph.Plan(f)
	if err != nil {
		p.log.Warn(fmt.Sprintf("Invalid step specified: %s", f))
		return rec, fmt.Errorf("regenerate %s: %w", f, err)
	}

	slog.Info("regenerating world field", "field", f, "cleared", cleared, "rerun", rerun)
	for _, c := range cleared {
		rec.Set(c, "")
	}
	p.snapshot(rec.Clone())

	return p.run(ctx, rec, rerun), nil
}

func (p *Pipeline) run(ctx context.Context, rec Record, fields []Field) Record {
	rec, results := p.runner.Run(ctx, rec, StagesFor(fields))

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	slog.Info("world stages finished", "stages", len(results), "failed", failed)

	p.snapshot(rec.Clone())
	return rec
}

func (p *Pipeline) enter() bool {
	if p.gate.TryEnter() {
		return true
	}
	p.log.Warn("Generation is already in progress.")
	return false
}

func (p *Pipeline) snapshot(rec Record) {
	if p.OnSnapshot != nil {
		p.OnSnapshot(rec)
	}
}
