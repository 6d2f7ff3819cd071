package ws

// Inbound message types.
const (
	TypeCreateSession  = "createSession"
	TypeJoinGame       = "joinGame"
	TypeSubmitEvidence = "submitEvidence"
)

type JoinGameMessage struct {
	Type     string `json:"type"`
	JoinCode string `json:"joinCode"`
}

type SubmitEvidenceMessage struct {
	Type     string `json:"type"`
	JoinCode string `json:"joinCode"`
	Text     string `json:"evidenceText"`
}

// Envelope is the outbound frame: the event name plus its payload.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// InboundEnvelope is the minimal decode used to dispatch on type before the
// full message is parsed.
type InboundEnvelope struct {
	Type string `json:"type"`
}
