// Narration prompts: the situations of the adventure and the belongings
// bookkeeping between them.
package llm

import "fmt"

const (
	SituationTokens      = 300
	BelongingsSyncTokens = 100
)

// Fallback narration keeps the story moving when generation fails.
const (
	FallbackIntroduction = "The adventure begins, but the details remain shrouded in mystery..."
	FallbackSituation    = "The story continues, but the details are shrouded in uncertainty."
	FallbackEnd          = "The story ends, but the details are lost in shadow..."
)

// TurnContext is what the narrator knows when resolving a player action.
type TurnContext struct {
	Outcome           int
	Score             int
	WorldType         string
	Storyline         string
	PreviousSituation string
	Action            string
	Belongings        string
	PowerSystem       string
}

// BelongingsContext is the input to a belongings update.
type BelongingsContext struct {
	WorldType          string
	PreviousBelongings string
	Situation          string
	PowerSystem        string
}

// IntroductionPrompt opens the adventure: world, character, surroundings.
func IntroductionPrompt(c Context) []Message {
	system := guidelines("Write the first situation of the game, the introduction to the adventure.",
		"First paragraph: the wider world and its moment in time, 2-3 sentences.",
		"Second paragraph: the character's feelings, struggles and motives drawn from the backstory, 2-3 sentences.",
		"Third paragraph: what the character sees, hears, smells and carries right now, 3 sentences.",
		"Separate paragraphs with blank lines.",
	)
	format := "Context:\n**World Type**: %s\n**Regions**: %s\n**Powers**: %s\n**Storyline**: %s\n**Backstory**: %s\n**Belongings**: %s"
	ex := fmt.Sprintf(format, dragonWorld, dragonRegions, dragonPowers, dragonStoryline, dragonBackstory,
		"**Belongings**: A jagged sword, a faded map of the Mistwood Forests, a pouch of healing herbs.")
	answer := "The Ember Plains roll out beneath a pale sky, the Ashen Peaks smoking on the horizon. The Dragon Lords hold these lands by fear, yet rebellion stirs in the Mistwood.\n\n" +
		"You still smell the smoke of that village. Loyalty and guilt pull at you in turn, and only the hope of making something right keeps you walking.\n\n" +
		"You crouch at the edge of the grass, scanning for movement. Mist coils over the distant trees while your sword rests at your hip and the herbs rustle in their pouch. Somewhere ahead, the artifact waits."
	query := fmt.Sprintf(format, c.WorldType, c.Regions, c.Powers, c.Storyline, c.Backstory, c.Belongings)
	return conversation(system, example(ex, answer), query)
}

// NextSituationPrompt continues the story after an action. The outcome sets
// the tone and the score tells the narrator how close the end is.
func NextSituationPrompt(c TurnContext) []Message {
	system := guidelines("Write the next situation in the adventure.",
		"The progress score shows how close the player is to the end; the game ends at 20.",
		"Negative outcomes (-1 to -10) range from mildly bad to catastrophic; positive ones (1 to 10) from mildly good to bringing the objective within reach.",
		"Two paragraphs of 2-3 sentences with sensory detail and logical consequences.",
		"Stay consistent with the world type, storyline, action, belongings and power system.",
	)
	ex := turnQuery(TurnContext{
		Outcome: -4, Score: 8, WorldType: dragonWorld, Storyline: dragonStoryline,
		PreviousSituation: "You follow faint tracks into the Mistwood.",
		Action:            "I cut through the undergrowth with my sword.",
		Belongings:        "A jagged sword, a faded map, a pouch of healing herbs.",
		PowerSystem:       "Magic flows from dragons through dragonfire.",
	}, true)
	answer := "The mist thickens and the undergrowth knots around your boots. A branch cracks overhead and crashes down, missing you by a hand's width.\n\n" +
		"When the echo fades, the tracks are gone. Somewhere behind you, something large is breathing."
	return conversation(system, example(ex, answer), turnQuery(c, true))
}

// EndSituationPrompt concludes the story.
func EndSituationPrompt(c TurnContext) []Message {
	system := guidelines("Write the final situation of the adventure to conclude the story.",
		"-10 to -6: catastrophe. -5 to -1: bittersweet or partial failure. 0: neither success nor failure.",
		"1 to 4: success with lingering problems. 5 to 9: most objectives achieved. 10: a perfect ending.",
		"Refer to the main objective, the previous situation and the action.",
		"Two paragraphs of 2-3 sentences.",
	)
	ex := turnQuery(TurnContext{
		Outcome: 10, WorldType: dragonWorld, Storyline: dragonStoryline,
		PreviousSituation: "The artifact hums in your hands as the mist clears.",
		Action:            "I raise the artifact and end the war.",
	}, false)
	answer := "Light pours from the artifact and the rebel leader lowers their blade in awe. The forest falls silent.\n\n" +
		"Dragon Lords and rebels alike kneel as the glow spreads like dawn. The realm's fate is sealed, and it is yours to shape."
	return conversation(system, example(ex, answer), turnQuery(c, false))
}

func turnQuery(c TurnContext, ongoing bool) string {
	if !ongoing {
		return fmt.Sprintf("**RollOutcome**: %d\n**WorldType**: %s\n**Storyline**: %s\n**Previous Situation**: %s\n**UserAction**: %s",
			c.Outcome, c.WorldType, c.Storyline, c.PreviousSituation, c.Action)
	}
	return fmt.Sprintf("**RollOutcome**: %d\n**Progress Score**: %d\n**WorldType**: %s\n**Storyline**: %s\n**Previous Situation**: %s\n**UserAction**: %s\n**Belongings**: %s\n**PowerSystem**: %s",
		c.Outcome, c.Score, c.WorldType, c.Storyline, c.PreviousSituation, c.Action, c.Belongings, c.PowerSystem)
}

// BelongingsPrompt rewrites the belongings list after a situation.
func BelongingsPrompt(c BelongingsContext) []Message {
	system := "You are an assistant for an RPG. Update the character's belongings to reflect the situation.\n\n" +
		"**Guidelines:**\n" +
		"- Add, remove or damage items only when the situation says so; otherwise repeat the list unchanged.\n" +
		"- Keep items consistent with the world type and power system.\n" +
		"- Output only **Belongings**: followed by the list.\n"
	format := "**worldType**: %s\n**Previous Belongings**: %s\n**Situation**: %s\n**PowerSystem**: %s"
	ex := fmt.Sprintf(format, dragonWorld,
		"A jagged sword, a faded map, a pouch of healing herbs.",
		"The altar's runes flare and a hidden drawer slides open, revealing a crystal shard.",
		"Magic flows from dragons through dragonfire.")
	answer := "**Belongings**: A jagged sword, a faded map, a pouch of healing herbs, a crystal shard pulsing with magic."
	query := fmt.Sprintf(format, c.WorldType, c.PreviousBelongings, c.Situation, c.PowerSystem)
	return conversation(system, example(ex, answer), query)
}
