package trial

// Role is one of the two fixed participant slots in a trial.
type Role string

const (
	RoleProsecutor Role = "Prosecutor"
	RoleDefense    Role = "Defense"
)

// WinnerNeither extends the role domain for verdicts: the judge may decline
// to pick a side.
const WinnerNeither = "Neither"

// WinnerDomain is the closed set of values a final verdict's winner may take.
var WinnerDomain = []string{string(RoleProsecutor), string(RoleDefense), WinnerNeither}

// ValidWinner reports whether w is one of the three allowed winner tokens.
func ValidWinner(w string) bool {
	for _, v := range WinnerDomain {
		if w == v {
			return true
		}
	}
	return false
}
