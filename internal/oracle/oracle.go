// Package oracle generates the judge's text: the case scenario, interim
// opinions between rounds, the final verdict and the winner pick. The
// coordinator only depends on the Oracle interface; the backend is either a
// deterministic script or an LLM behind an OpenAI-compatible endpoint.
package oracle

import "context"

// Directive tells the oracle which kind of text to produce.
type Directive string

const (
	DirectiveOpenScenario   Directive = "open-scenario"
	DirectiveInterimOpinion Directive = "interim-opinion"
	DirectiveVerdict        Directive = "verdict"
	DirectivePickWinner     Directive = "pick-winner"
)

// Message is one entry of the running conversation the oracle sees. Role is
// a chat role ("user", "assistant"); the coordinator appends submissions,
// directive prompts and oracle replies so later calls have full memory.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Oracle produces judge text for a directive given the conversation so far.
// Produce may block; callers bound it with a context deadline.
type Oracle interface {
	Produce(ctx context.Context, directive Directive, history []Message) (string, error)
}
