package prompts

import (
	"github.com/SammMarshall/samsbet/pkg/protocol"
	"github.com/SammMarshall/samsbet/pkg/resources"
)

func builtinPrompts() []protocol.Prompt {
	return []protocol.Prompt{
		{
			Name:        "match_preview",
			Description: "Pre-match betting preview of a fixture built from the match_analysis tool",
			Arguments: []protocol.PromptArgument{
				{Name: "event_id", Description: "Provider event id of the fixture", Required: true},
				{Name: "markets", Description: "Markets to focus on, e.g. shots on target, saves, goals"},
			},
			Content: "Run the match_analysis tool for event {{event_id}}.\n" +
				"Then write a short preview covering:\n" +
				"- players with the highest shots on target rate and a sample of at least 5 matches\n" +
				"- goalkeeper saves lines and clean sheet percentages\n" +
				"- the head to head record, average goals and both teams to score\n" +
				"Focus on these markets if given: {{markets}}\n" +
				"Quote fair odds only for entries that have them and mention the consistency label of each rate.",
		},
		{
			Name:        "asian_lines",
			Description: "Explain how an Asian over/under line settles and price it",
			Arguments: []protocol.PromptArgument{
				{Name: "line", Description: "Goal line such as 2.25", Required: true},
				{Name: "expected_goals", Description: "Expected total goals used as the Poisson mean", Required: true},
			},
			Content: "Read the resource " + resources.AsianLinesURI + " and explain how the {{line}} line settles for over and under.\n" +
				"Then call the fair_odds tool with lambda {{expected_goals}} and line {{line}} and explain the resulting fair odds.",
		},
	}
}
