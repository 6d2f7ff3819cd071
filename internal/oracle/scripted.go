package oracle

import (
	"context"
	"fmt"
)

// Scripted is the deterministic judge used when no LLM endpoint is
// configured, and in tests. Its texts are fixed per directive.
type Scripted struct{}

func (Scripted) Produce(_ context.Context, directive Directive, history []Message) (string, error) {
	switch directive {
	case DirectiveOpenScenario:
		return "A leading tech company is accused of illegally collecting customer data. " +
			"The prosecution alleges that the defendant misused personal information.", nil
	case DirectiveInterimOpinion:
		return fmt.Sprintf("After %d exchange(s), the court finds both sides' arguments worth weighing further.",
			submissionCount(history)), nil
	case DirectiveVerdict:
		return "After reviewing all submissions, the final verdict favors the Defense. " +
			"The prosecution's submissions did not provide enough conclusive evidence.", nil
	case DirectivePickWinner:
		return "Defense", nil
	}
	return "", fmt.Errorf("oracle: unknown directive %q", directive)
}

// submissionCount counts the user-role entries that look like evidence, i.e.
// everything except the directive prompts, which are always the last entry
// when this is called. Close enough for flavor text.
func submissionCount(history []Message) int {
	n := 0
	for _, m := range history {
		if m.Role == "user" {
			n++
		}
	}
	if n > 0 {
		n-- // the trailing directive prompt
	}
	return n
}
