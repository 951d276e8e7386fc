package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Prompt struct {
	ID            string                      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title         string                      `gorm:"not null" json:"title"`
	Description   string                      `gorm:"type:text" json:"description"`
	Prompt        string                      `gorm:"type:text;not null" json:"prompt"`
	Categories    datatypes.JSONSlice[string] `json:"categories"` // ordered, at most 4 (checked at the transport layer)
	Stars         int                         `gorm:"not null;default:0" json:"stars"`
	Likes         int                         `gorm:"not null;default:0" json:"likes"`
	GithubProfile string                      `json:"githubProfile,omitempty"`
	IsPublic      bool                        `gorm:"not null;index" json:"isPublic"`
	Slug          string                      `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	UserID        *string                     `gorm:"index" json:"userId,omitempty"` // nil for anonymous submissions
	CreatedAt     time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
}

func (p *Prompt) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Categories == nil {
		p.Categories = datatypes.JSONSlice[string]{}
	}
	return nil
}

// OwnedBy reports whether subject is the recorded owner.
func (p *Prompt) OwnedBy(subject string) bool {
	return p.UserID != nil && subject != "" && *p.UserID == subject
}
