package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrMalformedReply means the backend answered but the reply failed the
	// quality gate (over the word cap).
	ErrMalformedReply = errors.New("oracle: malformed reply")
	// ErrUnavailable means the backend could not produce a usable reply
	// within the retry budget.
	ErrUnavailable = errors.New("oracle: unavailable")
)

const (
	defaultMaxWords   = 300
	defaultMaxRetries = 2
	defaultTimeout    = 30 * time.Second
)

// Gate wraps a backend with a per-attempt timeout, a soft word cap on
// replies and a bounded retry budget. It never loops indefinitely: past the
// budget the caller gets an error and degrades to fallback text.
type Gate struct {
	Inner      Oracle
	MaxWords   int
	MaxRetries int
	Timeout    time.Duration
}

func (g *Gate) Produce(ctx context.Context, directive Directive, history []Message) (string, error) {
	maxWords := g.MaxWords
	if maxWords <= 0 {
		maxWords = defaultMaxWords
	}
	retries := g.MaxRetries
	if retries < 0 {
		retries = defaultMaxRetries
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		actx, cancel := context.WithTimeout(ctx, timeout)
		reply, err := g.Inner.Produce(actx, directive, history)
		cancel()
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			continue
		}
		if len(strings.Fields(reply)) > maxWords {
			lastErr = fmt.Errorf("%w: reply exceeds %d words", ErrMalformedReply, maxWords)
			continue
		}
		return reply, nil
	}
	return "", lastErr
}
