// Package confirm implements the human-in-the-loop interlock in front of
// risky terminal commands. Classification is advisory pattern matching, not a
// sandbox: false negatives are possible and accepted.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pilot-dev/pilot/internal/domain"
	"github.com/pilot-dev/pilot/internal/ports"
)

// ErrRejected means the human denied the command. It counts against the
// executor's consecutive-error budget but is not a driver fault.
var ErrRejected = errors.New("rejected by user")

// DefaultRiskPatterns covers the usual irreversible commands. Callers tune
// sensitivity through config; these are a starting point, not a sandbox.
func DefaultRiskPatterns() []string {
	return []string{
		`rm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)+`,
		`\bsudo\b`,
		`\bmkfs(\.[a-z0-9]+)?\b`,
		`\bdd\s+.*of=/dev/`,
		`>\s*/dev/sd[a-z]`,
		`\bchmod\s+(-[a-zA-Z]+\s+)*777\b`,
		`\bshutdown\b|\breboot\b`,
		`:\(\)\s*\{.*\};\s*:`,
	}
}

type pendingEntry struct {
	req      domain.PendingConfirmation
	decision chan bool
	resolved bool
}

// Gate intercepts commands matching risk patterns and blocks until a human
// decision arrives. With a zero timeout it waits indefinitely, bounded only
// by the run's cancellation; a positive timeout auto-rejects at the deadline.
type Gate struct {
	patterns  []*regexp.Regexp
	confirmer ports.Confirmer
	timeout   time.Duration
	log       *zap.Logger

	mu      sync.Mutex
	pending map[string]*pendingEntry
}

func NewGate(patterns []string, confirmer ports.Confirmer, timeout time.Duration, log *zap.Logger) (*Gate, error) {
	if log == nil {
		log = zap.NewNop()
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid risk pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &Gate{
		patterns:  compiled,
		confirmer: confirmer,
		timeout:   timeout,
		log:       log,
		pending:   make(map[string]*pendingEntry),
	}, nil
}

// Risky reports whether the command matches any configured risk pattern.
func (g *Gate) Risky(command string) bool {
	for _, re := range g.patterns {
		if re.MatchString(command) {
			return true
		}
	}
	return false
}

// Check passes safe commands through immediately. For risky commands it
// registers a PendingConfirmation, surfaces it through the Confirmer, and
// blocks until Resolve is called, the context dies, or the optional timeout
// auto-rejects. Returns nil when allowed, ErrRejected when denied.
func (g *Gate) Check(ctx context.Context, command, cwd string) error {
	if !g.Risky(command) {
		return nil
	}

	entry := &pendingEntry{
		req: domain.PendingConfirmation{
			Command:   command,
			Cwd:       cwd,
			RequestID: uuid.NewString(),
			Status:    domain.ConfirmationPending,
		},
		decision: make(chan bool, 1),
	}

	g.mu.Lock()
	g.pending[entry.req.RequestID] = entry
	g.mu.Unlock()
	defer g.forget(entry.req.RequestID)

	g.log.Info("risky command awaiting confirmation",
		zap.String("request_id", entry.req.RequestID),
		zap.String("command", command))

	if err := g.confirmer.Request(ctx, entry.req); err != nil {
		return fmt.Errorf("surfacing confirmation request: %w", err)
	}

	var timeoutC <-chan time.Time
	if g.timeout > 0 {
		timer := time.NewTimer(g.timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case allowed := <-entry.decision:
		if !allowed {
			return ErrRejected
		}
		return nil
	case <-timeoutC:
		// Auto-reject through Resolve so a racing human response still
		// resolves at most once.
		g.Resolve(entry.req.RequestID, false)
		if allowed := <-entry.decision; allowed {
			return nil
		}
		g.log.Info("confirmation timed out, auto-rejecting",
			zap.String("request_id", entry.req.RequestID))
		return ErrRejected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resolve delivers a human decision for a pending request. It resolves at
// most once per request ID: late or duplicate responses return false and
// change nothing.
func (g *Gate) Resolve(requestID string, allowed bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.pending[requestID]
	if !ok || entry.resolved {
		return false
	}
	entry.resolved = true
	if allowed {
		entry.req.Status = domain.ConfirmationAllowed
	} else {
		entry.req.Status = domain.ConfirmationRejected
	}
	entry.decision <- allowed
	return true
}

// Pending lists requests still awaiting a decision.
func (g *Gate) Pending() []domain.PendingConfirmation {
	g.mu.Lock()
	defer g.mu.Unlock()

	var reqs []domain.PendingConfirmation
	for _, e := range g.pending {
		if !e.resolved {
			reqs = append(reqs, e.req)
		}
	}
	return reqs
}

func (g *Gate) forget(requestID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if entry, ok := g.pending[requestID]; ok {
		// A request abandoned by cancellation must not resolve later.
		entry.resolved = true
		delete(g.pending, requestID)
	}
}
