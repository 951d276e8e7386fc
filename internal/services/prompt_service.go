package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"promptdir/internal/events"
	"promptdir/internal/identity"
	"promptdir/internal/logger"
	"promptdir/internal/models"
	"promptdir/internal/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	fallbackSlug     = "prompt"
	slugInsertTries  = 3
	slugCacheKeyBase = "prompt:slug:"
)

func slugCacheKey(slug string) string {
	return slugCacheKeyBase + slug
}

type PromptService struct {
	db    *gorm.DB
	log   *logger.Logger
	cache *utils.Cache
	bus   events.Bus
	now   func() time.Time
}

// NewPromptService wires the prompt operations. cache and bus may be nil.
func NewPromptService(db *gorm.DB, log *logger.Logger, cache *utils.Cache, bus events.Bus) *PromptService {
	return &PromptService{
		db:    db,
		log:   log.With("service", "PromptService"),
		cache: cache,
		bus:   bus,
		now:   time.Now,
	}
}

type CreatePromptInput struct {
	Title         string
	Description   string
	Prompt        string
	Categories    []string
	GithubProfile string
	IsPublic      bool
	// Slug is optional; when blank it is derived from Title. Either way the stored
	// slug is made unique by suffixing -2, -3, ...
	Slug string
}

// CreatePrompt stores a new prompt owned by who (nil for anonymous public submissions).
func (s *PromptService) CreatePrompt(ctx context.Context, who *identity.Identity, in CreatePromptInput) (*models.Prompt, error) {
	ctx, span := startSpan(ctx, "PromptService.CreatePrompt", "")
	defer span.End()

	if who == nil && !in.IsPublic {
		return nil, fmt.Errorf("%w: must be logged in to create private prompts", ErrUnauthenticated)
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalidArgument("title is required")
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, invalidArgument("prompt is required")
	}

	base := utils.GenerateSlug(in.Slug)
	if base == "" {
		base = utils.GenerateSlug(in.Title)
	}
	if base == "" {
		base = fallbackSlug
	}

	prompt := &models.Prompt{
		Title:         in.Title,
		Description:   in.Description,
		Prompt:        in.Prompt,
		Categories:    datatypes.JSONSlice[string](append([]string{}, in.Categories...)),
		Stars:         0,
		Likes:         0,
		GithubProfile: in.GithubProfile,
		IsPublic:      in.IsPublic,
		CreatedAt:     s.now(),
	}
	if who != nil {
		subject := who.Subject
		prompt.UserID = &subject
	}

	// The unique index catches a concurrent insert that picked the same slug; try again
	// with a fresh scan of taken slugs.
	var err error
	for attempt := 0; attempt < slugInsertTries; attempt++ {
		prompt.ID = ""
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			slug, err := allocateSlug(tx, base)
			if err != nil {
				return err
			}
			prompt.Slug = slug
			return tx.Create(prompt).Error
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		s.log.Warn("Slug collided on insert, retrying", "slug", prompt.Slug, "attempt", attempt+1)
	}
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("create prompt: %w", err)
	}

	s.publish(ctx, events.Event{Type: events.PromptCreated, PromptID: prompt.ID, Slug: prompt.Slug})
	return prompt, nil
}

// allocateSlug returns base, or base-N with the smallest N >= 2 that is not taken.
func allocateSlug(tx *gorm.DB, base string) (string, error) {
	var taken []string
	if err := tx.Model(&models.Prompt{}).
		Where("slug = ? OR slug LIKE ?", base, base+"-%").
		Pluck("slug", &taken).Error; err != nil {
		return "", err
	}
	used := make(map[string]bool, len(taken))
	for _, t := range taken {
		used[t] = true
	}
	candidate := base
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return candidate, nil
}

// SearchFilter narrows SearchPrompts. Zero values mean "no filter".
type SearchFilter struct {
	Query      string   // case-insensitive substring of title, description or prompt text
	Categories []string // matches prompts carrying at least one of these
	Stars      *int     // exact match on the stars average
}

// Matches applies every set filter; all of them must hold.
func (f SearchFilter) Matches(p *models.Prompt) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) &&
			!strings.Contains(strings.ToLower(p.Prompt), q) {
			return false
		}
	}
	if len(f.Categories) > 0 && !intersects(p.Categories, f.Categories) {
		return false
	}
	if f.Stars != nil && p.Stars != *f.Stars {
		return false
	}
	return true
}

func intersects(have []string, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

// SearchPrompts lists every prompt visible to who that passes f, oldest first.
func (s *PromptService) SearchPrompts(ctx context.Context, who *identity.Identity, f SearchFilter) ([]models.Prompt, error) {
	var prompts []models.Prompt
	if err := s.db.WithContext(ctx).
		Scopes(VisibleTo(who)).
		Order("created_at ASC").
		Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("search prompts: %w", err)
	}

	out := make([]models.Prompt, 0, len(prompts))
	for i := range prompts {
		if f.Matches(&prompts[i]) {
			out = append(out, prompts[i])
		}
	}
	return out, nil
}

// RecentPublicPrompts returns up to limit public prompts, newest first.
func (s *PromptService) RecentPublicPrompts(ctx context.Context, limit int) ([]models.Prompt, error) {
	prompts := []models.Prompt{}
	if err := s.db.WithContext(ctx).
		Scopes(VisibleTo(nil)).
		Order("created_at DESC").
		Limit(limit).
		Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("recent public prompts: %w", err)
	}
	return prompts, nil
}

// GetPromptBySlug returns the prompt with this slug, or nil when there is none or who
// may not see it.
func (s *PromptService) GetPromptBySlug(ctx context.Context, who *identity.Identity, slug string) (*models.Prompt, error) {
	p, err := s.lookupSlug(ctx, slug)
	if err != nil || p == nil {
		return nil, err
	}
	if !CanView(who, p) {
		return nil, nil
	}
	return p, nil
}

// lookupSlug reads through the cache. The cache holds rows regardless of visibility.
func (s *PromptService) lookupSlug(ctx context.Context, slug string) (*models.Prompt, error) {
	key := slugCacheKey(slug)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key).(models.Prompt); ok {
			cached.Categories = append(datatypes.JSONSlice[string]{}, cached.Categories...)
			return &cached, nil
		}
	}

	var prompts []models.Prompt
	if err := s.db.WithContext(ctx).
		Where("slug = ?", slug).
		Order("created_at ASC").
		Limit(1).
		Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("get prompt by slug: %w", err)
	}
	if len(prompts) == 0 {
		return nil, nil
	}

	if s.cache != nil {
		s.cache.Put(key, prompts[0])
	}
	return &prompts[0], nil
}

// GetPrompt returns the prompt by id, or ErrNotFound when it is missing or hidden from who.
func (s *PromptService) GetPrompt(ctx context.Context, who *identity.Identity, id string) (*models.Prompt, error) {
	return findVisiblePrompt(s.db.WithContext(ctx), who, id)
}

// UpdatePromptInput holds the editable fields; nil leaves a field unchanged.
type UpdatePromptInput struct {
	Title         *string
	Description   *string
	Prompt        *string
	Categories    *[]string
	GithubProfile *string
	IsPublic      *bool
}

// UpdatePrompt edits a prompt owned by who. The slug never changes so shared links keep working.
func (s *PromptService) UpdatePrompt(ctx context.Context, who *identity.Identity, id string, in UpdatePromptInput) (*models.Prompt, error) {
	if who == nil {
		return nil, fmt.Errorf("%w: must be logged in to edit prompts", ErrUnauthenticated)
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, invalidArgument("title is required")
	}
	if in.Prompt != nil && strings.TrimSpace(*in.Prompt) == "" {
		return nil, invalidArgument("prompt is required")
	}

	var p models.Prompt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&p).Error; err != nil {
			return notFoundOr(err, "prompt not found")
		}
		if !p.OwnedBy(who.Subject) {
			return fmt.Errorf("%w: only the owner can edit this prompt", ErrUnauthorized)
		}

		if in.Title != nil {
			p.Title = *in.Title
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if in.Prompt != nil {
			p.Prompt = *in.Prompt
		}
		if in.Categories != nil {
			p.Categories = datatypes.JSONSlice[string](append([]string{}, (*in.Categories)...))
		}
		if in.GithubProfile != nil {
			p.GithubProfile = *in.GithubProfile
		}
		if in.IsPublic != nil {
			p.IsPublic = *in.IsPublic
		}
		p.UpdatedAt = s.now()
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(p.Slug)
	s.publish(ctx, events.Event{Type: events.PromptUpdated, PromptID: p.ID, Slug: p.Slug})
	return &p, nil
}

// RatePrompt records a 1-5 vote and returns the prompt's new stars average.
// The insert and the recompute share one transaction with the prompt row locked, so
// concurrent votes cannot leave a stale average behind.
func (s *PromptService) RatePrompt(ctx context.Context, promptID string, rating int) (int, error) {
	if rating < 1 || rating > 5 {
		return 0, invalidArgument("rating must be between 1 and 5")
	}
	ctx, span := startSpan(ctx, "PromptService.RatePrompt", promptID)
	defer span.End()

	var p models.Prompt
	var stars int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "slug").
			Where("id = ?", promptID).
			First(&p).Error; err != nil {
			return notFoundOr(err, "prompt not found")
		}
		if err := tx.Create(&models.StarRating{
			PromptID:  promptID,
			Rating:    rating,
			CreatedAt: s.now(),
		}).Error; err != nil {
			return err
		}
		var err error
		stars, err = recomputeStars(tx, promptID)
		return err
	})
	if err != nil {
		recordError(span, err)
		return 0, err
	}

	s.invalidate(p.Slug)
	s.publish(ctx, events.Event{Type: events.PromptRated, PromptID: promptID, Slug: p.Slug})
	return stars, nil
}

// LikePrompt adds one like and returns the new count.
func (s *PromptService) LikePrompt(ctx context.Context, promptID string) (int, error) {
	return s.adjustLikes(ctx, promptID, 1)
}

// UnlikePrompt removes one like and returns the new count. There is no floor at zero;
// de-duplication is the transport's job.
func (s *PromptService) UnlikePrompt(ctx context.Context, promptID string) (int, error) {
	return s.adjustLikes(ctx, promptID, -1)
}

func (s *PromptService) adjustLikes(ctx context.Context, promptID string, delta int) (int, error) {
	var p models.Prompt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Prompt{}).
			Where("id = ?", promptID).
			UpdateColumn("likes", gorm.Expr("COALESCE(likes, 0) + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFoundOr(gorm.ErrRecordNotFound, "prompt not found")
		}
		return tx.Select("id", "slug", "likes").Where("id = ?", promptID).First(&p).Error
	})
	if err != nil {
		return 0, err
	}

	s.invalidate(p.Slug)
	s.publish(ctx, events.Event{Type: events.PromptLiked, PromptID: promptID, Slug: p.Slug})
	return p.Likes, nil
}

// GetPrivatePrompts lists who's private prompts; anonymous callers get an empty list.
func (s *PromptService) GetPrivatePrompts(ctx context.Context, who *identity.Identity) ([]models.Prompt, error) {
	prompts := []models.Prompt{}
	if who == nil {
		return prompts, nil
	}
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_public = ?", who.Subject, false).
		Order("created_at ASC").
		Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("get private prompts: %w", err)
	}
	return prompts, nil
}

// DeletePrompt removes a prompt owned by who together with its ratings and comments.
func (s *PromptService) DeletePrompt(ctx context.Context, who *identity.Identity, id string) error {
	if who == nil {
		return fmt.Errorf("%w: must be logged in to delete prompts", ErrUnauthenticated)
	}
	ctx, span := startSpan(ctx, "PromptService.DeletePrompt", id)
	defer span.End()

	var p models.Prompt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&p).Error; err != nil {
			return notFoundOr(err, "prompt not found")
		}
		if !p.OwnedBy(who.Subject) {
			return fmt.Errorf("%w: only the owner can delete this prompt", ErrUnauthorized)
		}

		if err := tx.Where("prompt_id = ?", id).Delete(&models.StarRating{}).Error; err != nil {
			return err
		}
		// Replies live on the same prompt, so this also covers whole threads.
		if err := tx.Where("prompt_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Prompt{}).Error
	})
	if err != nil {
		recordError(span, err)
		return err
	}

	s.invalidate(p.Slug)
	s.publish(ctx, events.Event{Type: events.PromptDeleted, PromptID: id, Slug: p.Slug})
	return nil
}

// Watch drops cached slug lookups for prompts changed on any instance, so a prompt made
// private or deleted elsewhere stops being served from this instance's cache. It returns
// when ctx is cancelled or the bus closes.
func (s *PromptService) Watch(ctx context.Context, bus events.Bus) error {
	if s.cache == nil || bus == nil {
		return nil
	}
	ch, err := bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			switch ev.Type {
			case events.PromptUpdated, events.PromptDeleted, events.PromptRated, events.PromptLiked:
				s.invalidate(ev.Slug)
			}
		}
	}
}

// LikeCount returns the current like count without a visibility check, matching
// LikePrompt and UnlikePrompt which also take only an id.
func (s *PromptService) LikeCount(ctx context.Context, promptID string) (int, error) {
	var p models.Prompt
	if err := s.db.WithContext(ctx).
		Select("id", "likes").
		Where("id = ?", promptID).
		First(&p).Error; err != nil {
		return 0, notFoundOr(err, "prompt not found")
	}
	return p.Likes, nil
}

func (s *PromptService) invalidate(slug string) {
	if s.cache != nil && slug != "" {
		s.cache.Delete(slugCacheKey(slug))
	}
}

func (s *PromptService) publish(ctx context.Context, ev events.Event) {
	publish(ctx, s.bus, s.log, ev, s.now())
}

// publish is best effort: the write has already committed, so a bus failure is only logged.
func publish(ctx context.Context, bus events.Bus, log *logger.Logger, ev events.Event, at time.Time) {
	if bus == nil {
		return
	}
	ev.At = at
	if err := bus.Publish(ctx, ev); err != nil {
		log.Warn("Failed to publish event", "type", ev.Type, "prompt_id", ev.PromptID, "error", err)
	}
}
