// Scenario prompts: the storyline, the hero's backstory and starting kit.
package llm

import "fmt"

const (
	StorylineTokens  = 200
	BackstoryTokens  = 200
	BelongingsTokens = 150
)

// Fallback texts used when a scenario stage cannot be generated.
const (
	FallbackStoryline = "**Synopsis**: A mysterious conflict looms over the land.\n" +
		"**Initial Situation**: You find yourself at the center of unfolding events.\n" +
		"**Main Quest Objective**: Uncover the truth and shape the fate of the world."
	FallbackBackstory  = "**Backstory**: You are a mysterious adventurer with a past shrouded in secrets, driven by a deep personal motivation to see the quest through."
	FallbackBelongings = "**Belongings**: A basic weapon, a worn map, and a pouch of money."
)

var dragonStoryline = "**Synopsis**: The Dragon Lords' rule is threatened as rebels in the Mistwood Forests uncover an artifact that could shift the balance of power.\n" +
	"**Initial Situation**: You are a mercenary hired by the Dragon Lords to find the artifact first, starting at the edge of the Ember Plains.\n" +
	"**Main Quest Objective**: Return the artifact to the Dragon Lords, or betray them and hand it to the rebels."

var dragonBackstory = "**Backstory**: You were a loyal Dragonkin commander until you watched your lords burn a village for late tribute. You deserted and now sell your sword, hoping to undo some of the harm you did."

// StorylinePrompt outlines synopsis, starting situation and objective.
func StorylinePrompt(c Context) []Message {
	system := guidelines("Create a precise storyline for the adventure.",
		"Start with a one-sentence synopsis of the world and its main conflict.",
		"Give the initial situation of the player.",
		"Define the main quest objective, including what ends the game aside from death.",
		"Follow the player's idea for the quest.",
		"Output **Synopsis**, **Initial Situation** and **Main Quest Objective**.",
	)
	ex := fmt.Sprintf("WorldData:\n**World Type**: %s\n**Regions**: %s\n**Key Powers**: %s\n**Quest Idea**: Find the artifact before the rebels do.",
		dragonWorld, dragonRegions, dragonPowers)
	query := fmt.Sprintf("WorldData:\n**World Type**: %s\n**Regions**: %s\n**Key Powers**: %s\n**Quest Idea**: %s",
		c.WorldType, c.Regions, c.Powers, c.NarrativeSeed)
	return conversation(system, example(ex, dragonStoryline), query)
}

// BackstoryPrompt writes a three-sentence past for the player character.
func BackstoryPrompt(c Context) []Message {
	system := guidelines("Write the player character's backstory.",
		"Focus on past, motivations and skills.",
		"Do not describe the current situation or belongings.",
		"No more than 3 sentences, prefixed with **Backstory**:.",
	)
	format := "Context:\n**Storyline**: %s\n**World Type**: %s\n**Key Powers**: %s\n**Population**: %s\n**Power System**: %s"
	ex := fmt.Sprintf(format, dragonStoryline, dragonWorld, dragonPowers, "Plainsfolk, Dragonkin and Mistwood Rebels.", "Magic flows from dragons through dragonfire.")
	query := fmt.Sprintf(format, c.Storyline, c.WorldType, c.Powers, c.Population, c.PowerSystem)
	return conversation(system, example(ex, dragonBackstory), query)
}

// InitialBelongingsPrompt lists 2-4 starting items.
func InitialBelongingsPrompt(c Context) []Message {
	system := guidelines("List the character's initial belongings.",
		"Include 2-4 specific items that fit the role, skills and motivations.",
		"Output only **Belongings**: followed by the list.",
	)
	format := "Context:\n**World Type**: %s\n**Storyline**: %s\n**Power System**: %s\n**Backstory**: %s"
	ex := fmt.Sprintf(format, dragonWorld, dragonStoryline, "Magic flows from dragons through dragonfire.", dragonBackstory)
	answer := "**Belongings**: A jagged sword bearing the Dragon Lords' mark, a faded map of the Mistwood Forests, a pouch of healing herbs."
	query := fmt.Sprintf(format, c.WorldType, c.Storyline, c.PowerSystem, c.Backstory)
	return conversation(system, example(ex, answer), query)
}
