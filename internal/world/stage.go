package world

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talgya/worldweaver/internal/llm"
	"github.com/talgya/worldweaver/internal/logbook"
)

// Stage is one fallible generation step that writes a single field.
type Stage struct {
	Field     Field
	MaxTokens int
	Prompt    func(llm.Context) []llm.Message
	// Fallback replaces the text when generation fails. Empty leaves the
	// field unset.
	Fallback string
}

// Result reports how a stage ended.
type Result struct {
	Field    Field
	Err      error
	Fallback bool
}

// OK reports whether the stage produced generated text.
func (r Result) OK() bool {
	return r.Err == nil
}

var worldStages = map[Field]Stage{
	WorldType:   {Field: WorldType, MaxTokens: llm.WorldTypeTokens, Prompt: llm.WorldTypePrompt},
	Regions:     {Field: Regions, MaxTokens: llm.RegionsTokens, Prompt: llm.RegionsPrompt},
	Powers:      {Field: Powers, MaxTokens: llm.PowersTokens, Prompt: llm.PowersPrompt},
	Resources:   {Field: Resources, MaxTokens: llm.ResourcesTokens, Prompt: llm.ResourcesPrompt},
	Population:  {Field: Population, MaxTokens: llm.PopulationTokens, Prompt: llm.PopulationPrompt},
	PowerSystem: {Field: PowerSystem, MaxTokens: llm.PowerSystemTokens, Prompt: llm.PowerSystemPrompt},
}

// ScenarioStages prepare the story once the world is built. Each has a fixed
// fallback so the introduction always has something to work from.
var ScenarioStages = []Stage{
	{Field: Storyline, MaxTokens: llm.StorylineTokens, Prompt: llm.StorylinePrompt, Fallback: llm.FallbackStoryline},
	{Field: Backstory, MaxTokens: llm.BackstoryTokens, Prompt: llm.BackstoryPrompt, Fallback: llm.FallbackBackstory},
	{Field: Belongings, MaxTokens: llm.BelongingsTokens, Prompt: llm.InitialBelongingsPrompt, Fallback: llm.FallbackBelongings},
}

// StagesFor returns the world stages for fields, keeping their order.
func StagesFor(fields []Field) []Stage {
	out := make([]Stage, 0, len(fields))
	for _, f := range fields {
		if st, ok := worldStages[f]; ok {
			out = append(out, st)
		}
	}
	return out
}

// Runner drives stages in order with a continue-on-error policy: a failed
// stage is logged, its field takes the fallback (or stays empty) and the next
// stage runs.
type Runner struct {
	Gen llm.Generator
	Log *logbook.Log

	// OnStage receives a snapshot after every stage.
	OnStage func(Record)
}

// Run applies stages to rec and returns the updated record with one Result
// per stage.
func (r *Runner) Run(ctx context.Context, rec Record, stages []Stage) (Record, []Result) {
	results := make([]Result, 0, len(stages))
	for _, st := range stages {
		var res Result
		rec, res = r.runStage(ctx, rec, st)
		results = append(results, res)
		if r.OnStage != nil {
			r.OnStage(rec.Clone())
		}
	}
	return rec, results
}

func (r *Runner) runStage(ctx context.Context, rec Record, st Stage) (Record, Result) {
	label := st.Field.Label()
	res := Result{Field: st.Field}

	entry := r.Log.Generating(fmt.Sprintf("Generating %s...", label))
	text, err := r.Gen.Generate(ctx, st.Prompt(rec.PromptContext()), st.MaxTokens)
	switch {
	case err == nil:
		r.Log.Update(entry, logbook.KindSuccess, fmt.Sprintf("Generated %s.", label))
	case st.Fallback != "":
		slog.Warn("stage failed, using fallback", "field", st.Field, "error", err)
		res.Err = fmt.Errorf("generate %s: %w", st.Field, err)
		res.Fallback = true
		text = st.Fallback
		r.Log.Update(entry, logbook.KindWarning, fmt.Sprintf("Could not generate %s, using a default.", label))
	default:
		slog.Warn("stage failed", "field", st.Field, "error", err)
		res.Err = fmt.Errorf("generate %s: %w", st.Field, err)
		text = ""
		r.Log.Update(entry, logbook.KindWarning, fmt.Sprintf("Could not generate %s.", label))
	}

	rec.Set(st.Field, text)
	return rec, res
}
