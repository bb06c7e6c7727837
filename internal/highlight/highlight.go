// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package highlight tracks the "currently being edited" line pointer for
// the open document.
//
// The pointer is last-write-wins with no history. After a successful
// session the pointer lingers for a fixed delay so the user can see the
// last edited line, then auto-clears; failure and cancellation clear it
// immediately. A new session starting before the delay fires cancels the
// pending clear.
package highlight

import (
	"sync"
	"time"
)

// DefaultClearDelay is how long the pointer lingers after a successful
// session before auto-clearing.
const DefaultClearDelay = 2 * time.Second

// Controller owns the highlight pointer for one open document.
type Controller struct {
	mu         sync.Mutex
	line       int  // 0 = none
	generation int  // invalidates pending timers
	timer      *time.Timer

	// onChange, when set, is invoked (without the lock held) after every
	// visible pointer change so the UI can repaint. May be nil.
	onChange func()
}

// NewController creates a controller with no pointer set.
func NewController() *Controller {
	return &Controller{}
}

// SetOnChange registers the repaint notification hook.
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Line returns the current pointer, ok=false when no line is highlighted.
func (c *Controller) Line() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.line, c.line > 0
}

// Set moves the pointer to the given 1-based line (last-write-wins).
// Lines < 1 are ignored.
func (c *Controller) Set(line int) {
	if line < 1 {
		return
	}
	c.mu.Lock()
	c.line = line
	notify := c.onChange
	c.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// ClearNow clears the pointer immediately and cancels any pending clear.
// Used on session failure and cancellation.
func (c *Controller) ClearNow() {
	c.mu.Lock()
	c.generation++
	c.stopTimerLocked()
	changed := c.line != 0
	c.line = 0
	notify := c.onChange
	c.mu.Unlock()

	if changed && notify != nil {
		notify()
	}
}

// ClearAfter schedules a clear once delay elapses. A later Set keeps the
// new line until the timer fires; a newer schedule or a SessionStarted call
// invalidates this one.
func (c *Controller) ClearAfter(delay time.Duration) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.stopTimerLocked()
	c.timer = time.AfterFunc(delay, func() {
		c.clearIfCurrent(gen)
	})
	c.mu.Unlock()
}

// SessionStarted cancels any pending clear so the outgoing session's timer
// cannot wipe the highlights of the one that just began.
func (c *Controller) SessionStarted() {
	c.mu.Lock()
	c.generation++
	c.stopTimerLocked()
	c.mu.Unlock()
}

// clearIfCurrent clears the pointer only if no newer schedule superseded
// the firing timer.
func (c *Controller) clearIfCurrent(gen int) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	changed := c.line != 0
	c.line = 0
	c.timer = nil
	notify := c.onChange
	c.mu.Unlock()

	if changed && notify != nil {
		notify()
	}
}

// stopTimerLocked stops a pending timer. Caller holds the lock.
func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
