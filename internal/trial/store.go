package trial

import (
	"math/rand"
	"sort"
	"sync"
)

const (
	joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	joinCodeLength   = 6
)

// Store is the only resource shared across sessions: a join-code keyed map.
// The store lock guards the map itself; per-session state is guarded by each
// session's own lock, so operations on different codes never serialize.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rnd      *rand.Rand
}

func NewStore(rnd *rand.Rand) *Store {
	return &Store{
		sessions: map[string]*Session{},
		rnd:      rnd,
	}
}

// Create allocates a fresh join code, regenerating on collision, and
// registers an empty session awaiting players.
func (st *Store) Create() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	var code string
	for {
		code = st.newCode()
		if _, taken := st.sessions[code]; !taken {
			break
		}
	}
	s := newSession(code)
	st.sessions[code] = s
	return s
}

func (st *Store) newCode() string {
	b := make([]byte, joinCodeLength)
	for i := range b {
		b[i] = joinCodeAlphabet[st.rnd.Intn(len(joinCodeAlphabet))]
	}
	return string(b)
}

func (st *Store) Get(joinCode string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[joinCode]
	if !ok {
		return nil, ErrInvalidCode
	}
	return s, nil
}

// Remove deletes a session at end of life. Unknown codes are a no-op.
func (st *Store) Remove(joinCode string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, joinCode)
}

// List returns the live sessions sorted by join code.
func (st *Store) List() []*Session {
	st.mu.RLock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].JoinCode < out[j].JoinCode })
	return out
}
