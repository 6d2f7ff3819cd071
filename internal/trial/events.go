package trial

// Outbound event names, matching the client protocol.
const (
	EventSessionCreated = "sessionCreated"
	EventRoleAssigned   = "roleAssigned"
	EventPlayerJoined   = "playerJoined"
	EventGameStarted    = "gameStarted"
	EventTurnUpdate     = "turnUpdate"
	EventRoundUpdate    = "roundUpdate"
	EventFinalVerdict   = "finalVerdict"
	EventError          = "error"
)

// Event is one outbound delivery the gateway must perform. An empty To means
// broadcast to every connected member of the session; otherwise the event is
// addressed to a single participant handle. Events in a returned slice must
// be delivered in order.
type Event struct {
	To      string
	Name    string
	Payload any
}

type SessionCreatedPayload struct {
	JoinCode string `json:"joinCode"`
}

type RoleAssignedPayload struct {
	Role Role `json:"role"`
}

type GameStartedPayload struct {
	Scenario  string `json:"scenario"`
	Players   []Role `json:"players"`
	TurnOrder []Role `json:"turnOrder"`
}

type TurnUpdatePayload struct {
	ActiveRole Role         `json:"activeRole"`
	Transcript []Submission `json:"transcript"`
	Round      int          `json:"round"`
}

type RoundUpdatePayload struct {
	Transcript   []Submission `json:"transcript"`
	Round        int          `json:"round"`
	JudgeOpinion string       `json:"judgeOpinion"`
}

type FinalVerdictPayload struct {
	Verdict    string       `json:"verdict"`
	Transcript []Submission `json:"transcript"`
	Winner     string       `json:"winner"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func broadcast(name string, payload any) Event {
	return Event{Name: name, Payload: payload}
}

func reply(to, name string, payload any) Event {
	return Event{To: to, Name: name, Payload: payload}
}
