package services

import (
	"promptdir/internal/identity"
	"promptdir/internal/models"

	"gorm.io/gorm"
)

// CanView is the single visibility rule for prompts: public prompts are visible to
// everyone, private prompts only to their owner. Every read path goes through it,
// either directly or as the VisibleTo query scope.
func CanView(who *identity.Identity, p *models.Prompt) bool {
	if p.IsPublic {
		return true
	}
	return who != nil && p.OwnedBy(who.Subject)
}

// VisibleTo is CanView expressed as a query scope.
func VisibleTo(who *identity.Identity) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if who == nil {
			return tx.Where("is_public = ?", true)
		}
		return tx.Where("(is_public = ? OR (user_id = ? AND is_public = ?))", true, who.Subject, false)
	}
}

// findVisiblePrompt loads a prompt by id. Missing and hidden prompts both report ErrNotFound
// so private ids are not confirmed to strangers.
func findVisiblePrompt(tx *gorm.DB, who *identity.Identity, id string) (*models.Prompt, error) {
	var p models.Prompt
	if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFoundOr(err, "prompt not found")
	}
	if !CanView(who, &p) {
		return nil, notFoundOr(gorm.ErrRecordNotFound, "prompt not found")
	}
	return &p, nil
}
