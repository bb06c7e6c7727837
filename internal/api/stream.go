// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the draftpad document server.
//
// This file implements the streaming half of the client: one POST to the
// edit endpoint whose response body is a long-lived event stream. Decoded
// events are handed to a callback synchronously, in wire order, on the
// goroutine driving the stream; session-level semantics (single-flight,
// cancellation, terminal-state bookkeeping) live in internal/session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// EventCallback receives each decoded event, in arrival order.
type EventCallback func(StreamEvent)

// StreamEdit opens one streaming edit exchange for the given document.
//
// A non-success response status is returned as an error with no events
// delivered. Otherwise every decoded event is passed to callback. The call
// returns nil when the transport ends cleanly, whether or not an explicit
// done event was seen; distinguishing those is the caller's job. Transport
// failures are returned as errors. Delivery stops after a terminal event;
// the server closes the stream right after sending one.
func (c *Client) StreamEdit(ctx context.Context, documentID, prompt string, callback EventCallback) error {
	encoded, err := json.Marshal(EditRequest{Prompt: prompt})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/api/chat/stream/" + documentID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := readResponse(resp)
		return handleErrorResponse(resp.StatusCode, body)
	}

	return c.processStream(ctx, resp.Body, callback)
}

// processStream drives the frame decoder over the response body.
func (c *Client) processStream(ctx context.Context, body io.Reader, callback EventCallback) error {
	dec := NewDecoder(body)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ev, err := dec.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			// A cancelled context surfaces as a read error on the body.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		callback(ev)

		if ev.IsTerminal() {
			return nil
		}
	}
}

// IsTransportError reports whether err is a transport-level fault rather
// than a server-reported error, for error-message selection in the UI.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrServerUnavailable) || errors.Is(err, ErrFrameTooLarge) {
		return true
	}
	var apiErr *APIError
	return !errors.As(err, &apiErr) && !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
