package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StarRating is append-only; Prompt.Stars is the rounded mean over all rows of a prompt.
type StarRating struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PromptID  string    `gorm:"type:varchar(36);not null;index" json:"promptId"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *StarRating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
