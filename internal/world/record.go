// Package world holds the generated setting of a session and the staged
// pipeline that builds it.
package world

import (
	"errors"
	"fmt"

	"github.com/talgya/worldweaver/internal/llm"
)

// Field names one generated text of a Record or its Story.
type Field uint8

const (
	WorldType Field = iota
	Regions
	Powers
	Resources
	Population
	PowerSystem

	// Story fields, written by the scenario stages.
	Storyline
	Backstory
	Belongings
)

// WorldFields are the world-building fields in generation order.
var WorldFields = []Field{WorldType, Regions, Powers, Resources, Population, PowerSystem}

var fieldNames = [...]string{
	WorldType:   "worldType",
	Regions:     "regions",
	Powers:      "powers",
	Resources:   "resources",
	Population:  "population",
	PowerSystem: "powerSystem",
	Storyline:   "storyline",
	Backstory:   "backstory",
	Belongings:  "belongings",
}

var fieldLabels = [...]string{
	WorldType:   "world type",
	Regions:     "regions",
	Powers:      "powers",
	Resources:   "resources",
	Population:  "population",
	PowerSystem: "power system",
	Storyline:   "storyline",
	Backstory:   "backstory",
	Belongings:  "belongings",
}

// ErrUnknownField is returned for a name that is not a world field.
var ErrUnknownField = errors.New("unknown world field")

func (f Field) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return fmt.Sprintf("Field(%d)", f)
}

// Label is the human-readable name used in log messages.
func (f Field) Label() string {
	if int(f) < len(fieldLabels) {
		return fieldLabels[f]
	}
	return f.String()
}

// ParseField maps an external name ("worldType", "regions", ...) to one of
// the six world fields.
func ParseField(name string) (Field, error) {
	for _, f := range WorldFields {
		if fieldNames[f] == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Record is the root aggregate of a session.
type Record struct {
	UserInput   string `json:"user_input"`
	WorldType   string `json:"world_type"`
	Regions     string `json:"regions"`
	Powers      string `json:"powers"`
	Resources   string `json:"resources"`
	Population  string `json:"population"`
	PowerSystem string `json:"power_system"`

	Story *Story `json:"story,omitempty"`
}

// Story is created once world-building is done.
type Story struct {
	UserInput  string      `json:"user_input"`
	Storyline  string      `json:"storyline"`
	Backstory  string      `json:"backstory"`
	Belongings string      `json:"belongings"`
	Situations []Situation `json:"situations"`
}

// Situation is one narrative beat. Action and Roll are both nil while the
// situation is open and both set once it has been resolved.
type Situation struct {
	Content string  `json:"content"`
	Action  *string `json:"user_action,omitempty"`
	Roll    *int    `json:"success_roll,omitempty"`
}

// Resolved reports whether the player has acted on the situation.
func (s Situation) Resolved() bool {
	return s.Action != nil && s.Roll != nil
}

// Resolve returns a copy of s carrying the action and its outcome.
func (s Situation) Resolve(action string, roll int) Situation {
	s.Action = &action
	s.Roll = &roll
	return s
}

// Get returns the text of f.
func (r *Record) Get(f Field) string {
	switch f {
	case WorldType:
		return r.WorldType
	case Regions:
		return r.Regions
	case Powers:
		return r.Powers
	case Resources:
		return r.Resources
	case Population:
		return r.Population
	case PowerSystem:
		return r.PowerSystem
	}
	if r.Story == nil {
		return ""
	}
	switch f {
	case Storyline:
		return r.Story.Storyline
	case Backstory:
		return r.Story.Backstory
	case Belongings:
		return r.Story.Belongings
	}
	return ""
}

// Set writes the text of f. Story fields are ignored until a Story exists.
func (r *Record) Set(f Field, text string) {
	switch f {
	case WorldType:
		r.WorldType = text
	case Regions:
		r.Regions = text
	case Powers:
		r.Powers = text
	case Resources:
		r.Resources = text
	case Population:
		r.Population = text
	case PowerSystem:
		r.PowerSystem = text
	case Storyline, Backstory, Belongings:
		if r.Story == nil {
			return
		}
		switch f {
		case Storyline:
			r.Story.Storyline = text
		case Backstory:
			r.Story.Backstory = text
		default:
			r.Story.Belongings = text
		}
	}
}

// Clone returns a deep copy, so snapshots handed to observers never alias
// the live record.
func (r Record) Clone() Record {
	if r.Story == nil {
		return r
	}
	st := *r.Story
	st.Situations = make([]Situation, len(r.Story.Situations))
	copy(st.Situations, r.Story.Situations)
	r.Story = &st
	return r
}

// Complete reports whether every world field has text.
func (r *Record) Complete() bool {
	for _, f := range WorldFields {
		if r.Get(f) == "" {
			return false
		}
	}
	return true
}

// PromptContext exposes the record to the prompt builders.
func (r *Record) PromptContext() llm.Context {
	c := llm.Context{
		UserInput:   r.UserInput,
		WorldType:   r.WorldType,
		Regions:     r.Regions,
		Powers:      r.Powers,
		Resources:   r.Resources,
		Population:  r.Population,
		PowerSystem: r.PowerSystem,
	}
	if r.Story != nil {
		c.NarrativeSeed = r.Story.UserInput
		c.Storyline = r.Story.Storyline
		c.Backstory = r.Story.Backstory
		c.Belongings = r.Story.Belongings
	}
	return c
}
