// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat transcript persistence for draftpad.
//
// Only transcripts are persisted. Document content is never cached locally:
// the server copy is authoritative and is re-fetched on demand.
package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/draftpad-tui/internal/model"
	"github.com/jeranaias/draftpad-tui/internal/util"
)

// =============================================================================
// STORED TYPES
// =============================================================================

// StoredTranscript is the persisted chat history for one document.
type StoredTranscript struct {
	DocumentID    string    `json:"document_id"`
	DocumentTitle string    `json:"document_title"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Messages []StoredMessage `json:"messages"`
}

// StoredMessage is one persisted transcript entry.
type StoredMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	EditSummary string `json:"edit_summary,omitempty"`
	Failed      bool   `json:"failed,omitempty"`
}

// TranscriptMeta describes a stored transcript for listings.
type TranscriptMeta struct {
	DocumentID    string    `json:"document_id"`
	DocumentTitle string    `json:"document_title"`
	UpdatedAt     time.Time `json:"updated_at"`
	MessageCount  int       `json:"message_count"`
	Preview       string    `json:"preview"`
}

// ErrNotFound indicates no transcript is stored for the document.
var ErrNotFound = errors.New("transcript not found")

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// Store persists transcripts as one JSON file per document.
type Store struct {
	// BaseDir is the transcript directory.
	BaseDir string

	// MaxTranscripts limits stored transcripts (0 = unlimited). The oldest
	// by update time are pruned on save.
	MaxTranscripts int
}

// NewStore creates a store rooted at baseDir, creating it if needed.
func NewStore(baseDir string, maxTranscripts int) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &Store{
		BaseDir:        baseDir,
		MaxTranscripts: maxTranscripts,
	}, nil
}

// =============================================================================
// SAVE / LOAD
// =============================================================================

// Save writes the transcript for a document, overwriting any previous one.
// Streaming (unsealed) messages are skipped: only settled history persists.
func (s *Store) Save(documentID, documentTitle string, t *model.Transcript) error {
	stored := StoredTranscript{
		DocumentID:    documentID,
		DocumentTitle: documentTitle,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	for _, msg := range t.Messages() {
		if !msg.Sealed() {
			continue
		}
		stored.Messages = append(stored.Messages, StoredMessage{
			ID:          msg.ID,
			Role:        msg.Role.String(),
			Content:     msg.Content,
			Timestamp:   msg.Timestamp,
			EditSummary: msg.EditSummary,
			Failed:      msg.Failed,
		})
	}

	if prev, err := s.Load(documentID); err == nil {
		stored.CreatedAt = prev.CreatedAt
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(s.path(documentID), data, 0644); err != nil {
		return err
	}

	return s.prune()
}

// Load reads the transcript for a document.
func (s *Store) Load(documentID string) (*StoredTranscript, error) {
	data, err := os.ReadFile(s.path(documentID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var stored StoredTranscript
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Restore rebuilds an in-memory transcript from a stored one.
// Every restored message is sealed.
func (st *StoredTranscript) Restore() *model.Transcript {
	t := model.NewTranscript()
	for _, sm := range st.Messages {
		switch model.Role(sm.Role) {
		case model.RoleUser:
			msg := t.AddUser(sm.Content)
			msg.Timestamp = sm.Timestamp
		case model.RoleAssistant:
			msg := t.StartAssistant()
			msg.Timestamp = sm.Timestamp
			msg.EditSummary = sm.EditSummary
			if sm.Failed {
				msg.Fail(strings.TrimPrefix(sm.Content, "Error: "))
			} else {
				msg.AppendToken(sm.Content)
				msg.Finalize("")
			}
		}
	}
	return t
}

// Delete removes a stored transcript.
func (s *Store) Delete(documentID string) error {
	err := os.Remove(s.path(documentID))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

// List returns metadata for all stored transcripts, newest first.
func (s *Store) List() ([]TranscriptMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		return nil, err
	}

	var metas []TranscriptMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.BaseDir, entry.Name()))
		if err != nil {
			continue
		}
		var stored StoredTranscript
		if err := json.Unmarshal(data, &stored); err != nil {
			continue
		}
		metas = append(metas, TranscriptMeta{
			DocumentID:    stored.DocumentID,
			DocumentTitle: stored.DocumentTitle,
			UpdatedAt:     stored.UpdatedAt,
			MessageCount:  len(stored.Messages),
			Preview:       preview(&stored),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// path returns the file for a document's transcript. Document IDs come from
// the server and may contain characters unfit for filenames.
func (s *Store) path(documentID string) string {
	return filepath.Join(s.BaseDir, sanitize(documentID)+".json")
}

// sanitize maps a document ID onto a safe filename.
func sanitize(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// preview returns the first user message, truncated.
func preview(st *StoredTranscript) string {
	for _, msg := range st.Messages {
		if msg.Role == string(model.RoleUser) {
			return util.TruncateRunes(strings.ReplaceAll(msg.Content, "\n", " "), 60)
		}
	}
	return ""
}

// prune removes the oldest transcripts beyond MaxTranscripts.
func (s *Store) prune() error {
	if s.MaxTranscripts <= 0 {
		return nil
	}
	metas, err := s.List()
	if err != nil {
		return err
	}
	for i := s.MaxTranscripts; i < len(metas); i++ {
		if err := s.Delete(metas[i].DocumentID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}
