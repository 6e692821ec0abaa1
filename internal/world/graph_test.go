package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGraphPlan(t *testing.T) {
	tests := []struct {
		field   Field
		cleared []Field
		rerun   []Field
	}{
		{WorldType, WorldFields, WorldFields},
		{Regions, []Field{Regions, Powers, Population}, []Field{Regions, Powers, Population}},
		{Powers, []Field{Powers, Population}, []Field{Powers}},
		{Resources, []Field{Resources, Population}, []Field{Resources, Population}},
		{Population, []Field{Population}, []Field{Population}},
		{PowerSystem, []Field{PowerSystem}, []Field{PowerSystem}},
	}

	g := DefaultGraph()
	for _, tt := range tests {
		t.Run(tt.field.String(), func(t *testing.T) {
			cleared, rerun, err := g.Plan(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.cleared, cleared)
			assert.Equal(t, tt.rerun, rerun)
		})
	}
}

func TestPlanRejectsStoryFields(t *testing.T) {
	_, _, err := DefaultGraph().Plan(Storyline)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestSetPolicy(t *testing.T) {
	g := DefaultGraph()
	g.SetPolicy(Powers, Population, ClearAndRecompute)

	_, rerun, err := g.Plan(Powers)
	require.NoError(t, err)
	assert.Equal(t, []Field{Powers, Population}, rerun)

	g.SetPolicy(PowerSystem, Population, ClearOnly)
	cleared, rerun, err := g.Plan(PowerSystem)
	require.NoError(t, err)
	assert.Equal(t, []Field{Population, PowerSystem}, cleared)
	assert.Equal(t, []Field{PowerSystem}, rerun)
}

func TestParseField(t *testing.T) {
	for _, f := range WorldFields {
		got, err := ParseField(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := ParseField("belongings")
	assert.ErrorIs(t, err, ErrUnknownField)
	_, err = ParseField("weather")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestSituationResolve(t *testing.T) {
	open := Situation{Content: "A gate of bone."}
	assert.False(t, open.Resolved())

	done := open.Resolve("I knock", -3)
	assert.True(t, done.Resolved())
	assert.Equal(t, "I knock", *done.Action)
	assert.Equal(t, -3, *done.Roll)
	assert.False(t, open.Resolved())
}

func TestCloneDoesNotAlias(t *testing.T) {
	rec := Record{WorldType: "wt", Story: &Story{Situations: []Situation{{Content: "a"}}}}
	cp := rec.Clone()
	cp.Story.Situations[0].Content = "b"
	cp.Story.Belongings = "rope"

	assert.Equal(t, "a", rec.Story.Situations[0].Content)
	assert.Empty(t, rec.Story.Belongings)
}

func TestSetStoryFieldWithoutStory(t *testing.T) {
	var rec Record
	rec.Set(Storyline, "ignored")
	assert.Nil(t, rec.Story)
	assert.Empty(t, rec.Get(Storyline))
}
