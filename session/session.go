// Package session keeps chat sessions alive between the theme offer and the
// story request. Sessions expire; nothing outlives the interaction.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Turn sources.
const (
	SourceAction  = "action"
	SourceMessage = "message"
)

// Turn 记录一次主题 → 故事的请求。
type Turn struct {
	Theme     string    `json:"theme"`
	Source    string    `json:"source"`
	Digest    string    `json:"digest,omitempty"`
	Failed    bool      `json:"failed,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session holds the themes offered at start and the requests made since.
type Session struct {
	ID        string    `json:"id"`
	Themes    []string  `json:"themes"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a session with a random ID.
func New(themes []string) *Session {
	if themes == nil {
		themes = []string{}
	}
	return &Session{
		ID:        uuid.NewString(),
		Themes:    themes,
		Turns:     []Turn{},
		CreatedAt: time.Now().UTC(),
	}
}

// AddTurn appends a request outcome.
func (s *Session) AddTurn(theme, source, digest string, failed bool) {
	s.Turns = append(s.Turns, Turn{
		Theme:     theme,
		Source:    source,
		Digest:    digest,
		Failed:    failed,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *Session) clone() *Session {
	c := *s
	c.Themes = append([]string{}, s.Themes...)
	c.Turns = append([]Turn{}, s.Turns...)
	return &c
}

// Store persists sessions for their TTL.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
