package session

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/worldweaver/internal/config"
	"github.com/talgya/worldweaver/internal/entropy"
	"github.com/talgya/worldweaver/internal/gate"
	"github.com/talgya/worldweaver/internal/llm"
	"github.com/talgya/worldweaver/internal/llm/llmtest"
	"github.com/talgya/worldweaver/internal/logbook"
	"github.com/talgya/worldweaver/internal/mechanics"
	"github.com/talgya/worldweaver/internal/narrative"
	"github.com/talgya/worldweaver/internal/persistence"
	"github.com/talgya/worldweaver/internal/world"
)

func testConfig() config.Config {
	return config.Config{LuckMean: 10, DifficultySpread: 1, InitialScore: 10}
}

func newSession(t *testing.T, cfg config.Config) (*Session, *persistence.Journal) {
	t.Helper()
	j, err := persistence.Open(persistence.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	var calls atomic.Int64
	fake := &llmtest.Fake{Respond: func([]llm.Message, int) (string, error) {
		return fmt.Sprintf("gen-%d", calls.Add(1)), nil
	}}

	// 0.5 and 0.25 give a zero deviate, so every roll equals the luck.
	s, err := New(fake, entropy.NewSequence(0.5, 0.25), cfg, j)
	require.NoError(t, err)
	return s, j
}

func settle(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestNewRejectsBadSpread(t *testing.T) {
	cfg := testConfig()
	cfg.DifficultySpread = 0
	_, err := New(&llmtest.Fake{}, nil, cfg, nil)
	assert.ErrorIs(t, err, mechanics.ErrInvalidSpread)
}

func TestFullSessionIsJournaled(t *testing.T) {
	s, j := newSession(t, testConfig())
	ctx := context.Background()

	_, err := uuid.Parse(s.ID)
	require.NoError(t, err)

	rec, err := s.BuildWorld(ctx, "  A floating archipelago  ")
	require.NoError(t, err)
	assert.True(t, rec.Complete())
	assert.Equal(t, "A floating archipelago", rec.UserInput)

	intro, err := s.StartNarration(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, intro.Content)
	assert.Equal(t, narrative.DefaultSeed, s.World().Story.UserInput)

	for i := 0; i < 2; i++ {
		_, _, err := s.Act(ctx, "I leap to the next island")
		require.NoError(t, err)
		settle(t, s)
	}
	_, _, err = s.Act(ctx, "again")
	assert.ErrorIs(t, err, narrative.ErrStoryEnded)
	assert.Equal(t, narrative.StateEnd, s.Narration().State())
	assert.Equal(t, 20, s.Narration().Score())

	transcript, err := j.Transcript(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Narration().Situations(), transcript)

	latest, err := j.LatestWorld(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.World(), latest)

	logs, err := j.Logs(s.ID)
	require.NoError(t, err)
	var messages []string
	for _, e := range logs {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "Generating world type...")
	assert.Contains(t, messages, "Generated introduction situation.")
	assert.Contains(t, messages, "Updated belongings.")
}

func TestWorldLocksOnceNarrationStarts(t *testing.T) {
	s, _ := newSession(t, testConfig())
	ctx := context.Background()

	_, err := s.StartNarration(ctx, "")
	assert.ErrorIs(t, err, ErrNoWorld)
	_, err = s.Regenerate(ctx, "regions")
	assert.ErrorIs(t, err, ErrNoWorld)

	built, err := s.BuildWorld(ctx, "idea")
	require.NoError(t, err)
	_, err = s.StartNarration(ctx, "a rescue")
	require.NoError(t, err)

	rec, err := s.Regenerate(ctx, "regions")
	assert.ErrorIs(t, err, ErrNarrationStarted)
	assert.Equal(t, built.Regions, rec.Regions)

	_, err = s.BuildWorld(ctx, "another idea")
	assert.ErrorIs(t, err, ErrNarrationStarted)
	assert.Equal(t, "a rescue", s.World().Story.UserInput)
}

func TestRegenerateByName(t *testing.T) {
	s, _ := newSession(t, testConfig())
	ctx := context.Background()
	built, err := s.BuildWorld(ctx, "idea")
	require.NoError(t, err)

	rec, err := s.Regenerate(ctx, "dragons")
	assert.ErrorIs(t, err, world.ErrUnknownField)
	assert.Equal(t, built, rec)
	last, ok := s.Log.Latest()
	require.True(t, ok)
	assert.Equal(t, logbook.KindWarning, last.Kind)
	assert.Equal(t, "Invalid step specified: dragons", last.Message)

	rec, err = s.Regenerate(ctx, "powers")
	require.NoError(t, err)
	assert.NotEqual(t, built.Powers, rec.Powers)
	assert.Empty(t, rec.Population)
	assert.Equal(t, built.Regions, rec.Regions)
	assert.Equal(t, rec, s.World())
}

func TestRecomputePopulationOption(t *testing.T) {
	cfg := testConfig()
	cfg.RecomputePopulationOnPowers = true
	s, _ := newSession(t, cfg)
	ctx := context.Background()
	_, err := s.BuildWorld(ctx, "idea")
	require.NoError(t, err)

	rec, err := s.Regenerate(ctx, "powers")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Population)
}

func TestBusyWhileBelongingsUpdate(t *testing.T) {
	release := make(chan struct{})
	fake := &llmtest.Fake{Respond: func(msgs []llm.Message, n int) (string, error) {
		if strings.Contains(msgs[0].Content, "Update the character's belongings") {
			<-release
		}
		return llmtest.Echo(msgs, n)
	}}
	s, err := New(fake, entropy.NewSequence(0.5, 0.25), testConfig(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.BuildWorld(ctx, "idea")
	require.NoError(t, err)
	_, err = s.StartNarration(ctx, "")
	require.NoError(t, err)

	next, task, err := s.Act(ctx, "I wait")
	require.NoError(t, err)
	assert.True(t, s.Busy())

	cur, _, err := s.Act(ctx, "I wait more")
	assert.ErrorIs(t, err, gate.ErrBusy)
	assert.Equal(t, next, cur)

	close(release)
	wait, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = task.Wait(wait)
	require.NoError(t, err)
	assert.False(t, s.Busy())
	assert.Len(t, s.Narration().Situations(), 2)
}
