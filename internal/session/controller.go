// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the lifecycle of one streaming edit exchange.
//
// A session is created per prompt submission and destroyed by its terminal
// outcome. The controller enforces the single-active-session rule for a
// document context, delivers decoded events strictly in wire order on one
// goroutine, and carries a per-session cancellation handle: cancelling does
// not abort the transport read (the body is drained to avoid a dangling
// response), it suppresses every observable side effect from that point on.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/draftpad-tui/internal/api"
)

// =============================================================================
// STATES AND ERRORS
// =============================================================================

// State is the lifecycle state of a session.
type State int

const (
	// StateActive means the exchange is open and events may still arrive.
	StateActive State = iota
	// StateCompleted means the stream ended normally (explicit done event
	// or clean end of transport).
	StateCompleted
	// StateFailed means a transport fault or server error event ended the
	// session.
	StateFailed
	// StateCancelled means the caller abandoned the session. The transport
	// may still be draining, but nothing it yields is observable.
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal returns true for the three absorbing states.
func (s State) Terminal() bool {
	return s != StateActive
}

// ErrSessionActive is returned by Start while a session is in flight.
// The rejected send is a no-op: no message, no request, no state change.
var ErrSessionActive = errors.New("a session is already active for this document")

// =============================================================================
// CALLBACKS AND DEPENDENCIES
// =============================================================================

// Streamer opens one streaming edit exchange. *api.Client implements it;
// tests substitute scripted streams.
type Streamer interface {
	StreamEdit(ctx context.Context, documentID, prompt string, callback api.EventCallback) error
}

// Callbacks receive a session's observable outcomes. All three are invoked
// from the single goroutine driving the stream, never concurrently.
// OnComplete fires when the transport ends without an explicit terminal
// event; an explicit done/error event arrives through OnEvent instead.
type Callbacks struct {
	OnEvent    func(ev api.StreamEvent)
	OnComplete func()
	OnError    func(err error)
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one prompt submission's lifecycle.
type Session struct {
	ID                 string
	DocumentID         string
	AssistantMessageID string

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cancel abandons the session. Events decoded after this point are
// swallowed; the transport read is left to drain on its own (bounded by the
// stream deadline, when one is configured). Safe to call repeatedly and
// after the session has already ended.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateActive {
		s.state = StateCancelled
	}
}

// Cancelled reports whether the caller abandoned the session.
func (s *Session) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateCancelled
}

// deliverable atomically checks that an event may be observed and applies
// the state transition for terminal events. Returns false once the session
// has left StateActive for any reason.
func (s *Session) deliverable(ev api.StreamEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return false
	}
	switch ev.Type {
	case api.EventDone:
		s.state = StateCompleted
	case api.EventError:
		s.state = StateFailed
	}
	return true
}

// settle moves an active session to a terminal state after the transport
// ends. No-op if a terminal event or cancellation already settled it.
func (s *Session) settle(to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return false
	}
	s.state = to
	return true
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller starts and tracks sessions for one document-editing context.
type Controller struct {
	streamer Streamer
	timeout  time.Duration

	mu     sync.Mutex
	active *Session
}

// NewController creates a controller using the given streamer.
// timeout bounds the whole exchange; zero disables the deadline.
func NewController(streamer Streamer, timeout time.Duration) *Controller {
	return &Controller{
		streamer: streamer,
		timeout:  timeout,
	}
}

// Active returns the in-flight session, or nil.
func (c *Controller) Active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && c.active.State() == StateActive {
		return c.active
	}
	return nil
}

// Start opens a streaming edit exchange for the document.
//
// assistantMessageID names the transcript entry this session's events
// target. While a session is active the call is rejected with
// ErrSessionActive and nothing happens. A non-success response status
// surfaces through OnError with zero events delivered.
func (c *Controller) Start(documentID, assistantMessageID, prompt string, cb Callbacks) (*Session, error) {
	c.mu.Lock()
	if c.active != nil && c.active.State() == StateActive {
		c.mu.Unlock()
		return nil, ErrSessionActive
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	sess := &Session{
		ID:                 "sess_" + uuid.NewString()[:8],
		DocumentID:         documentID,
		AssistantMessageID: assistantMessageID,
		state:              StateActive,
		cancel:             cancel,
	}
	c.active = sess
	c.mu.Unlock()

	go c.run(ctx, sess, prompt, cb)
	return sess, nil
}

// Shutdown cancels the active session's context outright. Unlike Cancel
// this does abort the transport read; it is for process teardown only.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.Cancel()
		c.active.cancel()
	}
}

// run drives one exchange to its terminal state.
func (c *Controller) run(ctx context.Context, sess *Session, prompt string, cb Callbacks) {
	defer sess.cancel()

	err := c.streamer.StreamEdit(ctx, sess.DocumentID, prompt, func(ev api.StreamEvent) {
		if !sess.deliverable(ev) {
			// Cancelled or already terminal: drain without side effects.
			return
		}
		if cb.OnEvent != nil {
			cb.OnEvent(ev)
		}
	})

	if err != nil {
		// A cancelled session reports nothing, whatever the drain saw.
		if sess.Cancelled() {
			return
		}
		if sess.settle(StateFailed) && cb.OnError != nil {
			cb.OnError(err)
		}
		return
	}

	// Clean transport end. If a terminal event already settled the session
	// its outcome stands; otherwise this is the "transport ended without a
	// done/error record" completion, which is reported distinctly.
	if sess.settle(StateCompleted) && cb.OnComplete != nil {
		cb.OnComplete()
	}
}
