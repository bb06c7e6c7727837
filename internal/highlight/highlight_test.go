// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package highlight

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSetAndLine(t *testing.T) {
	c := NewController()

	if _, ok := c.Line(); ok {
		t.Error("new controller should have no pointer")
	}

	c.Set(5)
	if line, ok := c.Line(); !ok || line != 5 {
		t.Errorf("Line() = %d, %v, want 5", line, ok)
	}

	// Last write wins.
	c.Set(9)
	if line, _ := c.Line(); line != 9 {
		t.Errorf("Line() = %d, want 9", line)
	}
}

func TestSetIgnoresInvalidLines(t *testing.T) {
	c := NewController()
	c.Set(3)
	c.Set(0)
	c.Set(-1)

	if line, _ := c.Line(); line != 3 {
		t.Errorf("Line() = %d, invalid sets must be ignored", line)
	}
}

func TestClearNow(t *testing.T) {
	c := NewController()
	var changes atomic.Int32
	c.SetOnChange(func() { changes.Add(1) })

	c.Set(7)
	c.ClearNow()

	if _, ok := c.Line(); ok {
		t.Error("pointer should be cleared")
	}
	if changes.Load() != 2 { // one for Set, one for the clear
		t.Errorf("onChange fired %d times, want 2", changes.Load())
	}

	// Clearing an already-clear pointer is silent.
	c.ClearNow()
	if changes.Load() != 2 {
		t.Error("ClearNow on empty pointer should not notify")
	}
}

func TestClearAfterLingersThenClears(t *testing.T) {
	c := NewController()
	c.Set(4)
	c.ClearAfter(80 * time.Millisecond)

	// Still visible before the delay elapses.
	time.Sleep(30 * time.Millisecond)
	if line, ok := c.Line(); !ok || line != 4 {
		t.Fatalf("pointer gone too early: %d, %v", line, ok)
	}

	time.Sleep(120 * time.Millisecond)
	if _, ok := c.Line(); ok {
		t.Error("pointer should have auto-cleared")
	}
}

func TestClearAfterNotifiesOnFire(t *testing.T) {
	c := NewController()
	fired := make(chan struct{}, 1)
	c.Set(2)
	c.SetOnChange(func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	c.ClearAfter(20 * time.Millisecond)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer clear never notified")
	}
}

func TestSessionStartedCancelsPendingClear(t *testing.T) {
	c := NewController()
	c.Set(6)
	c.ClearAfter(40 * time.Millisecond)

	// A new session starting before the timer fires keeps its own
	// highlights safe from the previous session's clear.
	c.SessionStarted()
	c.Set(11)

	time.Sleep(100 * time.Millisecond)
	if line, ok := c.Line(); !ok || line != 11 {
		t.Errorf("Line() = %d, %v; stale timer wiped the new session's pointer", line, ok)
	}
}

func TestNewerScheduleSupersedesOlder(t *testing.T) {
	c := NewController()
	c.Set(1)
	c.ClearAfter(30 * time.Millisecond)
	c.ClearAfter(300 * time.Millisecond) // reschedule further out

	time.Sleep(80 * time.Millisecond)
	if _, ok := c.Line(); !ok {
		t.Error("superseded timer should not have cleared the pointer")
	}
}
