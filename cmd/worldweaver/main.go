// Command worldweaver builds a world from an idea and plays a text
// adventure in it.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/talgya/worldweaver/internal/config"
	"github.com/talgya/worldweaver/internal/entropy"
	"github.com/talgya/worldweaver/internal/llm"
	"github.com/talgya/worldweaver/internal/narrative"
	"github.com/talgya/worldweaver/internal/persistence"
	"github.com/talgya/worldweaver/internal/session"
	"github.com/talgya/worldweaver/internal/world"
)

// Version is set with -ldflags at build time.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfg config.Config
	cmd := &cobra.Command{
		Use:   "worldweaver [idea]",
		Short: "Build a world from an idea and play an adventure in it",
		Long: `Generates a world (type, regions, powers, resources, population and power
system) from a scenario idea, lets you regenerate any part of it, then narrates
an adventure where every action is resolved by a dice roll.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			applyFlags(cmd, &loaded)
			if err := loaded.Validate(); err != nil {
				return err
			}
			cfg = loaded

			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.Level(),
			})))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			err := play(ctx, cfg, strings.Join(args, " "), cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.Int("luck", 5, "mean of the outcome roll")
	f.Int("difficulty", 2, "spread of the outcome roll")
	f.String("seed", "", "narrative idea for the adventure")
	f.String("journal", persistence.MemoryPath, "SQLite journal path")
	f.Bool("recompute-population", false, "recompute population when powers are regenerated")
	return cmd
}

// applyFlags overrides environment settings with flags given explicitly.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("luck") {
		cfg.LuckMean, _ = f.GetInt("luck")
	}
	if f.Changed("difficulty") {
		cfg.DifficultySpread, _ = f.GetInt("difficulty")
	}
	if f.Changed("seed") {
		cfg.NarrativeSeed, _ = f.GetString("seed")
	}
	if f.Changed("journal") {
		cfg.JournalPath, _ = f.GetString("journal")
	}
	if f.Changed("recompute-population") {
		cfg.RecomputePopulationOnPowers, _ = f.GetBool("recompute-population")
	}
}

func play(ctx context.Context, cfg config.Config, idea string, in io.Reader, out io.Writer) error {
	gen := llm.NewClient(cfg.AnthropicAPIKey, cfg.Model, cfg.MaxCallsPerMin)
	if !gen.Enabled() {
		return errors.New("ANTHROPIC_API_KEY is not set")
	}
	src := entropy.Pick(entropy.NewClient(cfg.RandomOrgKey), cfg.Seed)

	journal, err := persistence.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	s, err := session.New(gen, src, cfg, journal)
	if err != nil {
		return err
	}

	lines := bufio.NewScanner(in)
	ask := func(prompt string) (string, bool) {
		fmt.Fprint(out, prompt)
		if !lines.Scan() {
			return "", false
		}
		return strings.TrimSpace(lines.Text()), true
	}

	if strings.TrimSpace(idea) == "" {
		var ok bool
		if idea, ok = ask("Describe your scenario idea: "); !ok {
			return nil
		}
	}
	rec, err := s.BuildWorld(ctx, idea)
	if err != nil {
		return err
	}
	printWorld(out, rec)

	for {
		name, ok := ask("\nField to regenerate (worldType, regions, powers, resources, population, powerSystem), or Enter to begin: ")
		if !ok {
			return nil
		}
		if name == "" {
			break
		}
		rec, err = s.Regenerate(ctx, name)
		if errors.Is(err, world.ErrUnknownField) {
			fmt.Fprintf(out, "Unknown field %q.\n", name)
			continue
		}
		if err != nil {
			return err
		}
		printWorld(out, rec)
	}

	seed, ok := ask("\nWhat should the adventure be about? (Enter for the default) ")
	if !ok {
		return nil
	}
	intro, err := s.StartNarration(ctx, seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s\n", intro.Content)

	for s.Narration().State() != narrative.StateEnd {
		action, ok := ask("\n> ")
		if !ok {
			break
		}
		next, task, err := s.Act(ctx, action)
		if errors.Is(err, narrative.ErrEmptyAction) {
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n", next.Content)

		belongings, err := task.Wait(ctx)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(out, "\n%s\n", belongings)
	}

	if err := s.Wait(ctx); err != nil {
		return err
	}
	transcript, err := journal.Transcript(s.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nThe end. %d situations, final score %d.\n", len(transcript), s.Narration().Score())
	return nil
}

func printWorld(out io.Writer, rec world.Record) {
	title := cases.Title(language.English)
	for _, f := range world.WorldFields {
		text := rec.Get(f)
		if text == "" {
			text = "(not generated)"
		}
		fmt.Fprintf(out, "\n## %s\n%s\n", title.String(f.Label()), text)
	}
}
