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

	"gorm.io/gorm"
)

type CommentService struct {
	db  *gorm.DB
	log *logger.Logger
	bus events.Bus
	now func() time.Time
}

func NewCommentService(db *gorm.DB, log *logger.Logger, bus events.Bus) *CommentService {
	return &CommentService{
		db:  db,
		log: log.With("service", "CommentService"),
		bus: bus,
		now: time.Now,
	}
}

// GetComments lists a prompt's comments, newest first.
func (s *CommentService) GetComments(ctx context.Context, who *identity.Identity, promptID string) ([]models.Comment, error) {
	tx := s.db.WithContext(ctx)
	if _, err := findVisiblePrompt(tx, who, promptID); err != nil {
		return nil, err
	}

	comments := []models.Comment{}
	if err := tx.Where("prompt_id = ?", promptID).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}
	return comments, nil
}

type AddCommentInput struct {
	PromptID string
	Content  string
	ParentID *string
}

// AddComment posts a comment as who. Author id and name always come from who.
func (s *CommentService) AddComment(ctx context.Context, who *identity.Identity, in AddCommentInput) (*models.Comment, error) {
	if who == nil {
		return nil, fmt.Errorf("%w: must be logged in to comment", ErrUnauthenticated)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, invalidArgument("comment content is required")
	}
	ctx, span := startSpan(ctx, "CommentService.AddComment", in.PromptID)
	defer span.End()

	comment := &models.Comment{
		PromptID:  in.PromptID,
		Content:   in.Content,
		UserID:    who.Subject,
		UserName:  who.DisplayName(),
		CreatedAt: s.now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findVisiblePrompt(tx, who, in.PromptID); err != nil {
			return err
		}

		if in.ParentID != nil && *in.ParentID != "" {
			var parent models.Comment
			if err := tx.Select("id", "prompt_id").Where("id = ?", *in.ParentID).First(&parent).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return invalidArgument("parent comment does not exist")
				}
				return err
			}
			if parent.PromptID != in.PromptID {
				return invalidArgument("parent comment belongs to another prompt")
			}
			parentID := parent.ID
			comment.ParentID = &parentID
		}

		return tx.Create(comment).Error
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	publish(ctx, s.bus, s.log, events.Event{
		Type:      events.CommentAdded,
		PromptID:  comment.PromptID,
		CommentID: comment.ID,
	}, s.now())
	return comment, nil
}

// DeleteComment removes a comment written by who, along with every reply beneath it.
func (s *CommentService) DeleteComment(ctx context.Context, who *identity.Identity, commentID string) error {
	if who == nil {
		return fmt.Errorf("%w: must be logged in to delete comments", ErrUnauthenticated)
	}
	ctx, span := startSpan(ctx, "CommentService.DeleteComment", "")
	defer span.End()

	var comment models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", commentID).First(&comment).Error; err != nil {
			return notFoundOr(err, "comment not found")
		}
		if comment.UserID != who.Subject {
			return fmt.Errorf("%w: only the author can delete this comment", ErrUnauthorized)
		}

		ids, err := commentSubtree(tx, comment.ID)
		if err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
	if err != nil {
		recordError(span, err)
		return err
	}

	publish(ctx, s.bus, s.log, events.Event{
		Type:      events.CommentDeleted,
		PromptID:  comment.PromptID,
		CommentID: comment.ID,
	}, s.now())
	return nil
}

// commentSubtree returns rootID and the ids of all its transitive replies, breadth first.
func commentSubtree(tx *gorm.DB, rootID string) ([]string, error) {
	all := []string{rootID}
	seen := map[string]bool{rootID: true}
	frontier := []string{rootID}

	for len(frontier) > 0 {
		var children []string
		if err := tx.Model(&models.Comment{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, id := range children {
			if seen[id] {
				continue
			}
			seen[id] = true
			all = append(all, id)
			frontier = append(frontier, id)
		}
	}
	return all, nil
}
