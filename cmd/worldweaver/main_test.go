package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/worldweaver/internal/config"
	"github.com/talgya/worldweaver/internal/world"
)

func TestApplyFlagsOnlyOverridesChanged(t *testing.T) {
	cmd := rootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--luck=-2", "--recompute-population"}))

	cfg := config.Config{LuckMean: 5, DifficultySpread: 3, NarrativeSeed: "from env"}
	applyFlags(cmd, &cfg)

	assert.Equal(t, -2, cfg.LuckMean)
	assert.Equal(t, 3, cfg.DifficultySpread)
	assert.Equal(t, "from env", cfg.NarrativeSeed)
	assert.True(t, cfg.RecomputePopulationOnPowers)
}

func TestPrintWorld(t *testing.T) {
	var out bytes.Buffer
	printWorld(&out, world.Record{WorldType: "a drowned kingdom", PowerSystem: "tides"})

	text := out.String()
	assert.Contains(t, text, "## World Type\na drowned kingdom")
	assert.Contains(t, text, "## Regions\n(not generated)")
	assert.Contains(t, text, "## Power System\ntides")
}

func TestPlayRequiresAPIKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	err := play(ctx, config.Config{DifficultySpread: 2}, "idea", &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")
}
