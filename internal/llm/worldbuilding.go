// World-building prompts. Each stage sees only the fields generated before it.
package llm

import (
	"fmt"
	"strings"
)

// Output budgets per world-building stage.
const (
	WorldTypeTokens   = 150
	RegionsTokens     = 200
	PowersTokens      = 300
	ResourcesTokens   = 200
	PopulationTokens  = 150
	PowerSystemTokens = 200
)

// Context carries the generated setting into a prompt.
type Context struct {
	UserInput   string
	WorldType   string
	Regions     string
	Powers      string
	Resources   string
	Population  string
	PowerSystem string

	NarrativeSeed string
	Storyline     string
	Backstory     string
	Belongings    string
}

const assistantRole = "You are a world-building assistant for a text-based RPG."

// conversation lays out a system prompt, example exchanges, and the live query.
func conversation(system string, examples []Message, query string) []Message {
	msgs := make([]Message, 0, len(examples)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	msgs = append(msgs, examples...)
	return append(msgs, Message{Role: RoleUser, Content: query})
}

func example(query, answer string) []Message {
	return []Message{
		{Role: RoleUser, Content: query},
		{Role: RoleAssistant, Content: answer},
	}
}

func guidelines(intro string, rules ...string) string {
	var b strings.Builder
	b.WriteString(assistantRole)
	b.WriteString(" ")
	b.WriteString(intro)
	b.WriteString("\n\n**Guidelines:**\n")
	for _, r := range rules {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	return b.String()
}

var dragonWorld = "This is a second-world fantasy where ancient dragons dominate human kingdoms. Dragon magic shapes the land and every crown pays tribute to a wyrm."

var dragonRegions = "**Regions:**\n" +
	"1. **Ember Plains**: Rolling temperate grasslands dotted with geysers and hot springs.\n" +
	"2. **Ashen Peaks**: Volcanic mountains under constant ashfall, rich in minerals.\n" +
	"3. **Mistwood Forests**: Dense evergreen forests wrapped in perpetual mist."

var dragonPowers = "**Key Powers/Factions:**\n" +
	"1. **Dragon Lords**: Rule the Ember Plains from dragonback, demanding tribute.\n" +
	"2. **Rebel Clans**: Hide in the Mistwood Forests and raid tribute caravans."

// WorldTypePrompt classifies the user's idea and describes the world.
func WorldTypePrompt(c Context) []Message {
	system := guidelines("Based on the user's idea, identify the world type and describe it in 2-3 sentences.",
		"Say whether it is a real-world fantasy or a second-world fantasy.",
		"Name the core concept (dystopian, high fantasy, post-apocalyptic...).",
		"Include one defining feature.",
		"No introductions or commentary.",
	)
	examples := append(
		example("Alternate history where the Roman Empire never fell.",
			"This is a real-world fantasy set in a timeline where Rome still rules Europe. Roman engineering and law shape modern life, and the arena remains the heart of every city."),
		example("High fantasy world filled with dragons.", dragonWorld)...,
	)
	return conversation(system, examples, c.UserInput)
}

// RegionsPrompt describes 3-4 geographic regions.
func RegionsPrompt(c Context) []Message {
	system := guidelines("Using the world type, describe 3-4 distinct geographic regions: terrain, climate and natural features only.",
		"Use a structured, labeled list.",
		"Do not mention inhabitants, cultures or politics.",
		"Stay consistent with the world type.",
	)
	return conversation(system, example(dragonWorld, dragonRegions), c.WorldType)
}

// PowersPrompt invents 2-3 factions tied to the regions.
func PowersPrompt(c Context) []Message {
	system := guidelines("Create 2-3 fictional powers or factions for this world.",
		"Say where each is based, what it wants and how it controls the regions.",
		"Use a structured, labeled list.",
		"Stay consistent with the world type and regions.",
	)
	query := fmt.Sprintf("World Type and Description:\n%s\n\nGeographic Regions:\n%s", c.WorldType, c.Regions)
	ex := fmt.Sprintf("World Type and Description:\n%s\n\nGeographic Regions:\n%s", dragonWorld, dragonRegions)
	return conversation(system, example(ex, dragonPowers), query)
}

// ResourcesPrompt names one abundant and one scarce resource.
func ResourcesPrompt(c Context) []Message {
	system := guidelines("Identify one abundant and one scarce resource, where they are found and why they matter.",
		"Use a structured, labeled list.",
	)
	answer := "**Resources:**\n" +
		"- **Abundant Resource**: Volcanic glass from the Ashen Peaks, used for tools and trade.\n" +
		"- **Scarce Resource**: Dragon scales, shed rarely and prized as armor."
	return conversation(system, example(dragonWorld, answer), c.WorldType)
}

// PopulationPrompt describes three population groups. It reads every
// earlier world field, which is why regenerating any of them invalidates it.
func PopulationPrompt(c Context) []Message {
	system := guidelines("Describe the primary inhabitants of the world in 2-3 sentences.",
		"Introduce exactly 3 distinct population groups, their traits and roles.",
		"Use a structured, labeled list.",
	)
	query := fmt.Sprintf("World Type and Description:\n%s\n\nGeographic Situation:\n%s\n\nKey Powers/Factions (if any):\n%s\n\nResources:\n%s",
		c.WorldType, c.Regions, c.Powers, c.Resources)
	answer := "**Primary Inhabitants:**\n" +
		"1. **Plainsfolk**: Farmers who pay tribute in grain and cattle.\n" +
		"2. **Dragonkin**: Scaled enforcers of dragon law.\n" +
		"3. **Mistwood Rebels**: Outlaws who trade stolen tribute for weapons."
	ex := fmt.Sprintf("World Type and Description:\n%s\n\nGeographic Situation:\n%s\n\nKey Powers/Factions (if any):\n%s\n\nResources:\n",
		dragonWorld, dragonRegions, dragonPowers)
	return conversation(system, example(ex, answer), query)
}

// PowerSystemPrompt ties numeric progression to observable abilities.
func PowerSystemPrompt(c Context) []Message {
	system := guidelines("Define a power system that ties numeric progression (levels, stats) to visible traits or abilities. It will be used as fact when resolving actions.",
		"Use a structured format with a core source and low, mid and high levels.",
	)
	answer := "**Power System:**\n" +
		"- **Core Source:** Dragonfire.\n" +
		"- **Low-Level:** Warm skin, faint ember glow, resistance to heat.\n" +
		"- **Mid-Level:** Scales on the forearms, short bursts of flame.\n" +
		"- **High-Level:** Full scale armor, sustained fire breath, command over lesser drakes."
	return conversation(system, example("World Type and Description:\n"+dragonWorld, answer), "World Type and Description:\n"+c.WorldType)
}
