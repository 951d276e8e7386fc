package models

import (
	"html/template"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PromptID  string    `gorm:"type:varchar(36);not null;index:idx_comments_by_prompt" json:"promptId"`
	Content   string    `gorm:"type:text;not null" json:"content"` // plain text, markdown or a serialized rich-text doc
	UserID    string    `gorm:"not null;index" json:"userId"`
	UserName  string    `gorm:"not null" json:"userName"` // display name at the time of posting
	ParentID  *string   `gorm:"type:varchar(36);index" json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	// Filled by the handlers, not persisted
	ContentHTML template.HTML `gorm:"-" json:"contentHtml,omitempty"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CommentNode is a comment with its direct replies, rebuilt at read time.
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}
