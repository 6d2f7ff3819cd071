package trial

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"circuit-court/internal/oracle"
)

// stubOracle returns fixed texts per directive; winner and err are
// overridable to exercise the fallback paths.
type stubOracle struct {
	winner string
	err    error
}

func (o stubOracle) Produce(_ context.Context, d oracle.Directive, _ []oracle.Message) (string, error) {
	if o.err != nil {
		return "", o.err
	}
	switch d {
	case oracle.DirectiveOpenScenario:
		return "test scenario", nil
	case oracle.DirectiveInterimOpinion:
		return "interim opinion", nil
	case oracle.DirectiveVerdict:
		return "verdict text", nil
	case oracle.DirectivePickWinner:
		if o.winner != "" {
			return o.winner, nil
		}
		return "Prosecutor", nil
	}
	return "", nil
}

func newTestCoordinator(o oracle.Oracle) *Coordinator {
	st := NewStore(rand.New(rand.NewSource(1)))
	return NewCoordinator(st, o, rand.New(rand.NewSource(1)))
}

// startGame creates a session and joins two participants. Returns the join
// code, the handles keyed by role, and the turn order announced at start.
func startGame(t *testing.T, c *Coordinator) (string, map[Role]string, [2]Role) {
	t.Helper()
	ctx := context.Background()

	joinCode, _ := c.CreateSession("host")
	if _, err := c.Join(ctx, joinCode, "p1"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	events, err := c.Join(ctx, joinCode, "p2")
	if err != nil {
		t.Fatalf("second join: %v", err)
	}

	var started *GameStartedPayload
	for _, ev := range events {
		if ev.Name == EventGameStarted {
			payload := ev.Payload.(GameStartedPayload)
			started = &payload
		}
	}
	if started == nil {
		t.Fatal("second join emitted no gameStarted event")
	}
	if len(started.TurnOrder) != 2 {
		t.Fatalf("turn order has %d entries, want 2", len(started.TurnOrder))
	}
	handles := map[Role]string{RoleProsecutor: "p1", RoleDefense: "p2"}
	return joinCode, handles, [2]Role{started.TurnOrder[0], started.TurnOrder[1]}
}

func TestJoinAssignsRolesInOrder(t *testing.T) {
	c := newTestCoordinator(stubOracle{})
	ctx := context.Background()
	joinCode, _ := c.CreateSession("host")

	events, err := c.Join(ctx, joinCode, "p1")
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	assigned := events[0]
	if assigned.Name != EventRoleAssigned || assigned.To != "p1" {
		t.Fatalf("first event = %s to %q, want roleAssigned to p1", assigned.Name, assigned.To)
	}
	if role := assigned.Payload.(RoleAssignedPayload).Role; role != RoleProsecutor {
		t.Fatalf("first joiner role = %s, want Prosecutor", role)
	}

	events, err = c.Join(ctx, joinCode, "p2")
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if role := events[0].Payload.(RoleAssignedPayload).Role; role != RoleDefense {
		t.Fatalf("second joiner role = %s, want Defense", role)
	}

	if _, err := c.Join(ctx, joinCode, "p3"); !errors.Is(err, ErrSessionFull) {
		t.Fatalf("third join error = %v, want ErrSessionFull", err)
	}
}

func TestJoinUnknownCode(t *testing.T) {
	c := newTestCoordinator(stubOracle{})
	if _, err := c.Join(context.Background(), "NOSUCH", "p1"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("join error = %v, want ErrInvalidCode", err)
	}
}

func TestGameStartEvents(t *testing.T) {
	c := newTestCoordinator(stubOracle{})
	ctx := context.Background()
	joinCode, _ := c.CreateSession("host")
	if _, err := c.Join(ctx, joinCode, "p1"); err != nil {
		t.Fatalf("first join: %v", err)
	}

	events, err := c.Join(ctx, joinCode, "p2")
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	names := eventNames(events)
	want := []string{EventRoleAssigned, EventPlayerJoined, EventGameStarted, EventTurnUpdate}
	if len(names) != len(want) {
		t.Fatalf("events = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("events = %v, want %v", names, want)
		}
	}

	started := events[2].Payload.(GameStartedPayload)
	if started.Scenario != "test scenario" {
		t.Fatalf("scenario = %q, want oracle text", started.Scenario)
	}
	turn := events[3].Payload.(TurnUpdatePayload)
	if turn.Round != 1 {
		t.Fatalf("opening round = %d, want 1", turn.Round)
	}
	if turn.ActiveRole != started.TurnOrder[0] {
		t.Fatalf("active role = %s, want opener %s", turn.ActiveRole, started.TurnOrder[0])
	}
}

func TestSubmitOutOfTurnRejectedWithoutEffects(t *testing.T) {
	c := newTestCoordinator(stubOracle{})
	ctx := context.Background()
	joinCode, handles, order := startGame(t, c)
	waiting := handles[order[1]]

	for i := 0; i < 2; i++ {
		events, err := c.Submit(ctx, joinCode, waiting, "out of turn")
		if !errors.Is(err, ErrNotYourTurn) {
			t.Fatalf("attempt %d error = %v, want ErrNotYourTurn", i, err)
		}
		if len(events) != 0 {
			t.Fatalf("attempt %d emitted %d events, want 0", i, len(events))
		}
		s, _ := c.Store().Get(joinCode)
		view := s.Snapshot(true)
		if view.Submissions != 0 || len(view.Transcript) != 0 {
			t.Fatalf("attempt %d mutated state: %+v", i, view)
		}
	}
}

func TestSubmitUnknownHandle(t *testing.T) {
	c := newTestCoordinator(stubOracle{})
	joinCode, _, _ := startGame(t, c)

	if _, err := c.Submit(context.Background(), joinCode, "stranger", "text"); !errors.Is(err, ErrUnknownParticipant) {
		t.Fatalf("error = %v, want ErrUnknownParticipant", err)
	}
}

func TestSubmitBeforeGameStart(t *testing.T) {
	c := newTestCoordinator(stubOracle{})
	ctx := context.Background()
	joinCode, _ := c.CreateSession("host")
	if _, err := c.Join(ctx, joinCode, "p1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	// A non-participant is rejected as unknown.
	if _, err := c.Submit(ctx, joinCode, "stranger", "early"); !errors.Is(err, ErrUnknownParticipant) {
		t.Fatalf("stranger error = %v, want ErrUnknownParticipant", err)
	}
	// The lone participant cannot submit while the session awaits players.
	if _, err := c.Submit(ctx, joinCode, "p1", "early"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("participant error = %v, want ErrNotYourTurn", err)
	}
	s, _ := c.Store().Get(joinCode)
	if view := s.Snapshot(true); len(view.Transcript) != 0 {
		t.Fatalf("transcript = %v, want empty", view.Transcript)
	}
}

func TestFullGameFlow(t *testing.T) {
	c := newTestCoordinator(stubOracle{winner: "Prosecutor"})
	ctx := context.Background()
	joinCode, handles, order := startGame(t, c)

	var roundUpdates []RoundUpdatePayload
	var verdicts []FinalVerdictPayload
	active := order[0]
	var lastRole Role

	for i := 1; i <= 2*TotalRounds; i++ {
		events, err := c.Submit(ctx, joinCode, handles[active], "evidence")
		if err != nil {
			t.Fatalf("submission %d: %v", i, err)
		}

		// Alternation: consecutive accepted submissions come from different roles.
		if lastRole != "" && active == lastRole {
			t.Fatalf("submission %d accepted from %s twice in a row", i, active)
		}
		lastRole = active

		s, _ := c.Store().Get(joinCode)
		view := s.Snapshot(true)
		if view.Submissions != i {
			t.Fatalf("after submission %d: submissionCount = %d", i, view.Submissions)
		}
		if len(view.Transcript) != i {
			t.Fatalf("after submission %d: transcript length = %d", i, len(view.Transcript))
		}

		sawVerdict := false
		for _, ev := range events {
			switch ev.Name {
			case EventRoundUpdate:
				roundUpdates = append(roundUpdates, ev.Payload.(RoundUpdatePayload))
			case EventFinalVerdict:
				verdicts = append(verdicts, ev.Payload.(FinalVerdictPayload))
				sawVerdict = true
			case EventTurnUpdate:
				if sawVerdict {
					t.Fatalf("turnUpdate emitted after finalVerdict")
				}
				active = ev.Payload.(TurnUpdatePayload).ActiveRole
			}
		}
	}

	if len(roundUpdates) != TotalRounds-1 {
		t.Fatalf("roundUpdates = %d, want %d", len(roundUpdates), TotalRounds-1)
	}
	for i, ru := range roundUpdates {
		if ru.Round != i+1 {
			t.Fatalf("roundUpdate %d carries round %d, want %d", i, ru.Round, i+1)
		}
		if ru.JudgeOpinion != "interim opinion" {
			t.Fatalf("roundUpdate %d opinion = %q", i, ru.JudgeOpinion)
		}
	}
	if len(verdicts) != 1 {
		t.Fatalf("finalVerdict count = %d, want 1", len(verdicts))
	}
	verdict := verdicts[0]
	if verdict.Verdict != "verdict text" {
		t.Fatalf("verdict = %q", verdict.Verdict)
	}
	if len(verdict.Transcript) != 2*TotalRounds {
		t.Fatalf("verdict transcript length = %d, want %d", len(verdict.Transcript), 2*TotalRounds)
	}
	if verdict.Winner != "Prosecutor" {
		t.Fatalf("winner = %q, want Prosecutor", verdict.Winner)
	}

	s, _ := c.Store().Get(joinCode)
	if view := s.Snapshot(false); view.Phase != PhaseConcluded || view.Winner != "Prosecutor" {
		t.Fatalf("final state = %+v", view)
	}

	if _, err := c.Submit(ctx, joinCode, handles[order[0]], "late"); !errors.Is(err, ErrGameConcluded) {
		t.Fatalf("post-conclusion error = %v, want ErrGameConcluded", err)
	}
}

func TestRoundBoundaryEventOrder(t *testing.T) {
	c := newTestCoordinator(stubOracle{})
	ctx := context.Background()
	joinCode, handles, order := startGame(t, c)

	if _, err := c.Submit(ctx, joinCode, handles[order[0]], "first"); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	events, err := c.Submit(ctx, joinCode, handles[order[1]], "second")
	if err != nil {
		t.Fatalf("second submission: %v", err)
	}

	// Turn announcement first so play never waits on oracle latency, then the
	// interim opinion for the completed round.
	if len(events) != 2 || events[0].Name != EventTurnUpdate || events[1].Name != EventRoundUpdate {
		t.Fatalf("round boundary events = %v", eventNames(events))
	}
	turn := events[0].Payload.(TurnUpdatePayload)
	if turn.Round != 2 {
		t.Fatalf("next round = %d, want 2", turn.Round)
	}
	if turn.ActiveRole != order[0] {
		t.Fatalf("round 2 opener = %s, want %s", turn.ActiveRole, order[0])
	}
	if round := events[1].Payload.(RoundUpdatePayload).Round; round != 1 {
		t.Fatalf("roundUpdate round = %d, want 1", round)
	}
}

func TestMidRoundTurnHandsOver(t *testing.T) {
	c := newTestCoordinator(stubOracle{})
	ctx := context.Background()
	joinCode, handles, order := startGame(t, c)

	events, err := c.Submit(ctx, joinCode, handles[order[0]], "opening statement")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(events) != 1 || events[0].Name != EventTurnUpdate {
		t.Fatalf("mid-round events = %v, want a single turnUpdate", eventNames(events))
	}
	turn := events[0].Payload.(TurnUpdatePayload)
	if turn.ActiveRole != order[1] {
		t.Fatalf("active role = %s, want %s", turn.ActiveRole, order[1])
	}
	if turn.Round != 1 {
		t.Fatalf("round = %d, want 1", turn.Round)
	}
}

func TestWinnerOutOfDomainFallsBackToDomain(t *testing.T) {
	c := newTestCoordinator(stubOracle{winner: "the moon"})
	joinCode, handles, order := startGame(t, c)

	verdict := playToConclusion(t, c, joinCode, handles, order)
	if !ValidWinner(verdict.Winner) {
		t.Fatalf("winner %q outside domain", verdict.Winner)
	}
}

func TestWinnerTokenMatchedCaseInsensitively(t *testing.T) {
	c := newTestCoordinator(stubOracle{winner: "  defense "})
	joinCode, handles, order := startGame(t, c)

	verdict := playToConclusion(t, c, joinCode, handles, order)
	if verdict.Winner != string(RoleDefense) {
		t.Fatalf("winner = %q, want Defense", verdict.Winner)
	}
}

func TestOracleFailureDegradesGracefully(t *testing.T) {
	c := newTestCoordinator(stubOracle{err: errors.New("backend down")})
	joinCode, handles, order := startGame(t, c)

	s, _ := c.Store().Get(joinCode)
	if view := s.Snapshot(false); view.Scenario == "" {
		t.Fatal("no fallback scenario substituted")
	}

	verdict := playToConclusion(t, c, joinCode, handles, order)
	if verdict.Verdict == "" {
		t.Fatal("no fallback verdict substituted")
	}
	if !ValidWinner(verdict.Winner) {
		t.Fatalf("winner %q outside domain", verdict.Winner)
	}
	if view := s.Snapshot(false); view.Phase != PhaseConcluded {
		t.Fatalf("phase = %s, want Concluded", view.Phase)
	}
}

func TestConversationHistoryAccumulates(t *testing.T) {
	c := newTestCoordinator(stubOracle{})
	ctx := context.Background()
	joinCode, handles, order := startGame(t, c)

	s, _ := c.Store().Get(joinCode)
	s.mu.Lock()
	afterStart := len(s.history)
	s.mu.Unlock()
	if afterStart != 2 {
		t.Fatalf("history after start = %d entries, want prompt+reply", afterStart)
	}

	if _, err := c.Submit(ctx, joinCode, handles[order[0]], "exhibit A"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	s.mu.Lock()
	afterSubmit := len(s.history)
	s.mu.Unlock()
	if afterSubmit != afterStart+1 {
		t.Fatalf("history after submission = %d entries, want %d", afterSubmit, afterStart+1)
	}
}

// playToConclusion submits alternately until the game ends and returns the
// final verdict payload.
func playToConclusion(t *testing.T, c *Coordinator, joinCode string, handles map[Role]string, order [2]Role) FinalVerdictPayload {
	t.Helper()
	ctx := context.Background()

	active := order[0]
	for i := 0; i < 2*TotalRounds; i++ {
		events, err := c.Submit(ctx, joinCode, handles[active], "evidence")
		if err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
		for _, ev := range events {
			switch ev.Name {
			case EventTurnUpdate:
				if role := ev.Payload.(TurnUpdatePayload).ActiveRole; role != "" {
					active = role
				}
			case EventFinalVerdict:
				return ev.Payload.(FinalVerdictPayload)
			}
		}
	}
	t.Fatal("game did not conclude")
	return FinalVerdictPayload{}
}

func eventNames(events []Event) []string {
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = ev.Name
	}
	return names
}
