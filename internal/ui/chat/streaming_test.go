// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"testing"
	"time"
)

func TestStreamingBufferBatchThreshold(t *testing.T) {
	sb := NewStreamingBuffer()

	// Below the batch size and inside the frame window: no flush.
	sb.Write("a")
	if content, ok := sb.Flush(); ok {
		t.Errorf("premature flush: %q", content)
	}
	if sb.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", sb.Pending())
	}

	// Hitting the batch size flushes regardless of time.
	for i := 1; i < 15; i++ {
		sb.Write(fmt.Sprintf("t%d", i))
	}
	content, ok := sb.Flush()
	if !ok {
		t.Fatal("batch threshold should trigger a flush")
	}
	if content == "" || sb.Pending() != 0 {
		t.Errorf("flush left content=%q pending=%d", content, sb.Pending())
	}
}

func TestStreamingBufferTimeThreshold(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.Write("slow token")

	time.Sleep(40 * time.Millisecond) // past the 33ms frame window

	content, ok := sb.Flush()
	if !ok || content != "slow token" {
		t.Errorf("Flush = %q, %v after frame window elapsed", content, ok)
	}
}

func TestStreamingBufferPreservesOrder(t *testing.T) {
	sb := NewStreamingBuffer()
	for i := 0; i < 20; i++ {
		sb.Write(fmt.Sprintf("%d ", i))
	}

	content, ok := sb.ForceFlush()
	if !ok {
		t.Fatal("expected content")
	}
	if content != "0 1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 16 17 18 19 " {
		t.Errorf("tokens reordered or lost: %q", content)
	}
}

func TestStreamingBufferForceFlush(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.Write("x")

	// ForceFlush ignores both thresholds.
	content, ok := sb.ForceFlush()
	if !ok || content != "x" {
		t.Errorf("ForceFlush = %q, %v", content, ok)
	}

	// Nothing left: a second force flush reports no content.
	if _, ok := sb.ForceFlush(); ok {
		t.Error("empty buffer should not flush")
	}
}

func TestStreamingBufferReset(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.Write("doomed")
	sb.Write("tokens")

	sb.Reset()

	if sb.Pending() != 0 {
		t.Errorf("Pending = %d after Reset", sb.Pending())
	}
	if content, ok := sb.ForceFlush(); ok {
		t.Errorf("cancelled tokens must never render, got %q", content)
	}
}
