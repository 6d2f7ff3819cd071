package trial

import "errors"

// Caller errors. All of them leave session state untouched and are reported
// back to the offending connection only.
var (
	ErrInvalidCode        = errors.New("invalid_code")
	ErrSessionFull        = errors.New("session_full")
	ErrUnknownParticipant = errors.New("unknown_participant")
	ErrNotYourTurn        = errors.New("not_your_turn")
	ErrGameConcluded      = errors.New("game_concluded")
)
