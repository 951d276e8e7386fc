package events

import (
	"context"
	"time"
)

type Type string

const (
	PromptCreated  Type = "prompt.created"
	PromptUpdated  Type = "prompt.updated"
	PromptDeleted  Type = "prompt.deleted"
	PromptRated    Type = "prompt.rated"
	PromptLiked    Type = "prompt.liked"
	CommentAdded   Type = "comment.added"
	CommentDeleted Type = "comment.deleted"
)

// Event tells subscribers that something changed; they re-query for the new state.
type Event struct {
	Type      Type      `json:"type"`
	PromptID  string    `json:"promptId,omitempty"`
	Slug      string    `json:"slug,omitempty"` // set on prompt events so every instance can drop its cached lookup
	CommentID string    `json:"commentId,omitempty"`
	At        time.Time `json:"at"`
}

// Bus fans change events out to subscribers. Delivery is best effort.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a channel that is closed once ctx is done.
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}
