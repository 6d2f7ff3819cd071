package trial

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"circuit-court/internal/oracle"
)

// Coordinator drives the per-session turn state machine. Each operation
// resolves the session from the store, takes the session lock for its whole
// duration (oracle calls included) and returns the ordered outbound events
// the gateway must deliver. Sessions never block one another.
type Coordinator struct {
	store  *Store
	oracle oracle.Oracle

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewCoordinator wires the store, the judge oracle and a seeded randomness
// source used for the turn-order coin flip and the winner fallback.
func NewCoordinator(store *Store, o oracle.Oracle, rnd *rand.Rand) *Coordinator {
	return &Coordinator{store: store, oracle: o, rnd: rnd}
}

func (c *Coordinator) Store() *Store {
	return c.store
}

// CreateSession allocates a new session and tells the creator its join code.
// The creator is a room member (the host display) but not a participant.
func (c *Coordinator) CreateSession(handle string) (string, []Event) {
	s := c.store.Create()
	log.Info().Str("join_code", s.JoinCode).Msg("session created")
	return s.JoinCode, []Event{
		reply(handle, EventSessionCreated, SessionCreatedPayload{JoinCode: s.JoinCode}),
	}
}

// Join assigns the next free role to handle: first joiner prosecutes, second
// defends. Once both slots fill the game starts: turn order is decided by a
// coin flip and the oracle is asked for the scenario before the opening
// events are emitted.
func (c *Coordinator) Join(ctx context.Context, joinCode, handle string) ([]Event, error) {
	s, err := c.store.Get(joinCode)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var role Role
	switch {
	case s.participants[RoleProsecutor] == "" && s.participantIndex[handle] == "":
		role = RoleProsecutor
	case s.participants[RoleDefense] == "" && s.participantIndex[handle] == "":
		role = RoleDefense
	default:
		return nil, ErrSessionFull
	}
	s.participants[role] = handle
	s.participantIndex[handle] = role
	log.Info().Str("join_code", joinCode).Str("role", string(role)).Msg("player joined")

	events := []Event{
		reply(handle, EventRoleAssigned, RoleAssignedPayload{Role: role}),
		broadcast(EventPlayerJoined, s.filledRoles()),
	}
	if s.full() {
		events = append(events, c.startGame(ctx, s)...)
	}
	return events, nil
}

func (c *Coordinator) startGame(ctx context.Context, s *Session) []Event {
	s.turnOrder = [2]Role{RoleProsecutor, RoleDefense}
	if c.coinFlip() {
		s.turnOrder[0], s.turnOrder[1] = s.turnOrder[1], s.turnOrder[0]
	}
	s.scenario = c.produce(ctx, s, oracle.DirectiveOpenScenario)
	s.phase = PhaseAwaitingSubmission
	log.Info().
		Str("join_code", s.JoinCode).
		Str("opener", string(s.turnOrder[0])).
		Msg("game started")

	return []Event{
		broadcast(EventGameStarted, GameStartedPayload{
			Scenario:  s.scenario,
			Players:   s.filledRoles(),
			TurnOrder: []Role{s.turnOrder[0], s.turnOrder[1]},
		}),
		broadcast(EventTurnUpdate, TurnUpdatePayload{
			ActiveRole: s.activeRole(),
			Transcript: s.transcriptCopy(),
			Round:      s.round,
		}),
	}
}

// Submit validates and applies one piece of evidence. Rejections leave the
// session untouched; acceptance appends to the transcript, advances the turn
// and, at round boundaries, drives the round or conclusion transition.
func (c *Coordinator) Submit(ctx context.Context, joinCode, handle, text string) ([]Event, error) {
	s, err := c.store.Get(joinCode)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	role, ok := s.participantIndex[handle]
	if !ok {
		return nil, ErrUnknownParticipant
	}
	if s.phase == PhaseConcluded {
		return nil, ErrGameConcluded
	}
	if s.phase != PhaseAwaitingSubmission || role != s.activeRole() {
		return nil, ErrNotYourTurn
	}

	s.transcript = append(s.transcript, Submission{Role: role, Text: text, Round: s.round})
	s.history = append(s.history, oracle.Message{
		Role:    "user",
		Content: fmt.Sprintf("%s (round %d): %s", role, s.round, text),
	})
	s.submissionCount++
	log.Info().
		Str("join_code", joinCode).
		Str("role", string(role)).
		Int("round", s.round).
		Int("submissions", s.submissionCount).
		Msg("evidence accepted")

	if s.submissionCount%2 != 0 {
		// Round still open: hand the turn to the other side.
		return []Event{broadcast(EventTurnUpdate, TurnUpdatePayload{
			ActiveRole: s.activeRole(),
			Transcript: s.transcriptCopy(),
			Round:      s.round,
		})}, nil
	}

	s.phase = PhaseRoundResolving
	if s.round == TotalRounds {
		return c.conclude(ctx, s), nil
	}
	return c.nextRound(ctx, s), nil
}

// nextRound advances to the next round. The turn announcement goes out first
// so play is never gated on oracle latency; the interim opinion follows as a
// round update for the round just completed.
func (c *Coordinator) nextRound(ctx context.Context, s *Session) []Event {
	completed := s.round
	s.round++
	s.phase = PhaseAwaitingSubmission

	events := []Event{broadcast(EventTurnUpdate, TurnUpdatePayload{
		// Every round opens with the original opener.
		ActiveRole: s.turnOrder[0],
		Transcript: s.transcriptCopy(),
		Round:      s.round,
	})}

	opinion := c.produce(ctx, s, oracle.DirectiveInterimOpinion)
	events = append(events, broadcast(EventRoundUpdate, RoundUpdatePayload{
		Transcript:   s.transcriptCopy(),
		Round:        completed,
		JudgeOpinion: opinion,
	}))
	return events
}

// conclude runs the verdict sequence: a deliberation announcement with no
// active role, then the oracle's verdict and winner, then exactly one final
// verdict event.
func (c *Coordinator) conclude(ctx context.Context, s *Session) []Event {
	s.phase = PhaseConcluding

	events := []Event{broadcast(EventTurnUpdate, TurnUpdatePayload{
		ActiveRole: "",
		Transcript: s.transcriptCopy(),
		Round:      s.round,
	})}

	verdict := c.produce(ctx, s, oracle.DirectiveVerdict)
	winner := c.pickWinner(ctx, s)
	s.winner = winner
	s.phase = PhaseConcluded
	log.Info().Str("join_code", s.JoinCode).Str("winner", winner).Msg("game concluded")

	events = append(events, broadcast(EventFinalVerdict, FinalVerdictPayload{
		Verdict:    verdict,
		Transcript: s.transcriptCopy(),
		Winner:     winner,
	}))
	return events
}

// pickWinner constrains the oracle's answer to the three allowed tokens. An
// out-of-domain reply falls back to a uniform random pick so the verdict is
// always decisive and well formed.
func (c *Coordinator) pickWinner(ctx context.Context, s *Session) string {
	raw := strings.TrimSpace(c.produce(ctx, s, oracle.DirectivePickWinner))
	for _, w := range WinnerDomain {
		if strings.EqualFold(raw, w) {
			return w
		}
	}
	log.Warn().Str("join_code", s.JoinCode).Str("reply", raw).Msg("winner reply out of domain, picking at random")
	return WinnerDomain[c.intn(len(WinnerDomain))]
}

// produce frames the directive as a prompt, appends both the prompt and the
// reply to the session's conversation history, and substitutes a fixed
// placeholder when the oracle fails so the state machine always moves on.
func (c *Coordinator) produce(ctx context.Context, s *Session, d oracle.Directive) string {
	s.history = append(s.history, oracle.Message{Role: "user", Content: promptFor(d, s)})
	reply, err := c.oracle.Produce(ctx, d, s.history)
	if err != nil {
		log.Warn().
			Err(err).
			Str("join_code", s.JoinCode).
			Str("directive", string(d)).
			Msg("oracle failed, using fallback text")
		reply = fallbackText(d)
	}
	s.history = append(s.history, oracle.Message{Role: "assistant", Content: reply})
	return reply
}

func promptFor(d oracle.Directive, s *Session) string {
	switch d {
	case oracle.DirectiveOpenScenario:
		return "Present the case scenario for this mock trial in a short paragraph."
	case oracle.DirectiveInterimOpinion:
		return fmt.Sprintf("Round %d is complete. Give a brief interim opinion on how each side is doing.", s.round-1)
	case oracle.DirectiveVerdict:
		return "All rounds are complete. Deliver the final verdict with your reasoning."
	case oracle.DirectivePickWinner:
		return "Name only the winning side: Prosecutor, Defense, or Neither."
	}
	return string(d)
}

func fallbackText(d oracle.Directive) string {
	switch d {
	case oracle.DirectiveOpenScenario:
		return "A dispute has been brought before the court. Both sides will present their evidence in turn."
	case oracle.DirectiveInterimOpinion:
		return "The judge reserves comment until more evidence has been heard."
	case oracle.DirectiveVerdict:
		return "The court was unable to produce a reasoned verdict and rules on the record as submitted."
	}
	// pick-winner has no textual fallback: an empty reply forces the random pick.
	return ""
}

func (c *Coordinator) coinFlip() bool {
	return c.intn(2) == 0
}

func (c *Coordinator) intn(n int) int {
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.rnd.Intn(n)
}
