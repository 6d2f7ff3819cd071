package trial

import (
	"sync"

	"circuit-court/internal/oracle"
)

// TotalRounds is the fixed number of rounds per game. A round is one
// submission from each side.
const TotalRounds = 3

type Phase string

const (
	PhaseAwaitingPlayers    Phase = "AwaitingPlayers"
	PhaseAwaitingSubmission Phase = "AwaitingSubmission"
	PhaseRoundResolving     Phase = "RoundResolving"
	PhaseConcluding         Phase = "Concluding"
	PhaseConcluded          Phase = "Concluded"
)

// Submission is one accepted piece of evidence. Both submissions of a round
// carry the same round number.
type Submission struct {
	Role  Role   `json:"role"`
	Text  string `json:"text"`
	Round int    `json:"round"`
}

// Session holds all state for one game. The store owns the session; every
// mutation happens under mu, held for the whole of a single inbound request
// including any oracle calls, so sessions never block one another.
type Session struct {
	JoinCode string

	mu               sync.Mutex
	phase            Phase
	participants     map[Role]string
	participantIndex map[string]Role
	turnOrder        [2]Role
	round            int
	submissionCount  int
	transcript       []Submission
	scenario         string
	history          []oracle.Message
	winner           string
}

func newSession(joinCode string) *Session {
	return &Session{
		JoinCode:         joinCode,
		phase:            PhaseAwaitingPlayers,
		participants:     map[Role]string{},
		participantIndex: map[string]Role{},
		round:            1,
	}
}

// activeRole returns who may submit next. Only meaningful while the game is
// in progress; alternation is driven by submission count parity.
func (s *Session) activeRole() Role {
	return s.turnOrder[s.submissionCount%2]
}

// filledRoles lists the assigned roles, Prosecutor first. Roles are assigned
// in join order and the first joiner is always the Prosecutor, so this is
// also join order.
func (s *Session) filledRoles() []Role {
	roles := []Role{}
	for _, r := range []Role{RoleProsecutor, RoleDefense} {
		if _, ok := s.participants[r]; ok {
			roles = append(roles, r)
		}
	}
	return roles
}

func (s *Session) full() bool {
	return len(s.participants) == 2
}

// transcriptCopy returns a snapshot safe to hand to outbound payloads while
// the session keeps appending.
func (s *Session) transcriptCopy() []Submission {
	out := make([]Submission, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// View is the read-only projection served by the public HTTP endpoints.
type View struct {
	JoinCode    string       `json:"join_code"`
	Phase       Phase        `json:"phase"`
	Round       int          `json:"round"`
	Players     []Role       `json:"players"`
	TurnOrder   []Role       `json:"turn_order,omitempty"`
	ActiveRole  Role         `json:"active_role,omitempty"`
	Submissions int          `json:"submissions"`
	Scenario    string       `json:"scenario,omitempty"`
	Transcript  []Submission `json:"transcript,omitempty"`
	Winner      string       `json:"winner,omitempty"`
}

// Snapshot builds a View under the session lock.
func (s *Session) Snapshot(includeTranscript bool) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		JoinCode:    s.JoinCode,
		Phase:       s.phase,
		Round:       s.round,
		Players:     s.filledRoles(),
		Submissions: s.submissionCount,
		Winner:      s.winner,
	}
	if s.phase != PhaseAwaitingPlayers {
		v.TurnOrder = []Role{s.turnOrder[0], s.turnOrder[1]}
		v.Scenario = s.scenario
	}
	if s.phase == PhaseAwaitingSubmission {
		v.ActiveRole = s.activeRole()
	}
	if includeTranscript {
		v.Transcript = s.transcriptCopy()
	}
	return v
}
