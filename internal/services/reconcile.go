package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"promptdir/internal/events"
	"promptdir/internal/logger"
	"promptdir/internal/models"
	"promptdir/internal/utils"

	"gorm.io/gorm"
)

const (
	reconcileQueueSize = 4096
	reconcileBatchSize = 50
	reconcileFlushTick = 500 * time.Millisecond
)

// Reconciler 在后台修复派生数据：按需重算提示词的 stars 平均分，并定期清理删除后遗留的孤儿记录
type Reconciler struct {
	db    *gorm.DB
	log   *logger.Logger
	cache *utils.Cache

	queue   chan string // 待重算 stars 的提示词 ID 队列
	pending map[string]bool
	mu      sync.Mutex
}

func NewReconciler(db *gorm.DB, log *logger.Logger, cache *utils.Cache) *Reconciler {
	return &Reconciler{
		db:      db,
		log:     log.With("service", "Reconciler"),
		cache:   cache,
		queue:   make(chan string, reconcileQueueSize),
		pending: make(map[string]bool),
	}
}

// ScheduleRecompute 将提示词加入重算队列（异步）
// 已在队列中的 ID 会被合并，避免短时间内重复计算
func (r *Reconciler) ScheduleRecompute(promptID string) {
	r.mu.Lock()
	if r.pending[promptID] {
		r.mu.Unlock()
		return
	}
	r.pending[promptID] = true
	r.mu.Unlock()

	select {
	case r.queue <- promptID:
	default:
		r.mu.Lock()
		delete(r.pending, promptID)
		r.mu.Unlock()
		r.log.Warn("Recompute queue full, dropping request", "prompt_id", promptID)
	}
}

// Run drains the recompute queue and, when interval > 0, sweeps orphans on that
// interval. It returns when ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) error {
	batch := make([]string, 0, reconcileBatchSize)
	flush := time.NewTicker(reconcileFlushTick)
	defer flush.Stop()

	var sweepC <-chan time.Time
	if interval > 0 {
		sweep := time.NewTicker(interval)
		defer sweep.Stop()
		sweepC = sweep.C
	}

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				r.processBatch(context.WithoutCancel(ctx), batch)
			}
			return nil
		case id := <-r.queue:
			batch = append(batch, id)
			if len(batch) >= reconcileBatchSize {
				r.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-flush.C:
			if len(batch) > 0 {
				r.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-sweepC:
			res, err := r.Sweep(ctx)
			if err != nil {
				r.log.Error("Orphan sweep failed", "error", err)
				continue
			}
			if res.Total() > 0 {
				r.log.Info("Orphan sweep removed rows",
					"ratings", res.Ratings, "comments", res.Comments, "replies", res.Replies)
			}
		}
	}
}

// Watch schedules a recompute for every rating event on bus, including those
// published by other instances. It returns when ctx is cancelled or the bus closes.
func (r *Reconciler) Watch(ctx context.Context, bus events.Bus) error {
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
			if ev.Type == events.PromptRated && ev.PromptID != "" {
				r.ScheduleRecompute(ev.PromptID)
			}
		}
	}
}

func (r *Reconciler) processBatch(ctx context.Context, ids []string) {
	for _, id := range ids {
		if _, err := r.RecomputeStars(ctx, id); err != nil {
			r.log.Warn("Stars recompute failed", "prompt_id", id, "error", err)
		}

		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
	}
}

// RecomputeStars rebuilds one prompt's stars from its ratings right away.
func (r *Reconciler) RecomputeStars(ctx context.Context, promptID string) (int, error) {
	var p models.Prompt
	var stars int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "slug").Where("id = ?", promptID).First(&p).Error; err != nil {
			return notFoundOr(err, "prompt not found")
		}
		var err error
		stars, err = recomputeStars(tx, promptID)
		return err
	})
	if err != nil {
		return 0, err
	}
	if r.cache != nil {
		r.cache.Delete(slugCacheKey(p.Slug))
	}
	return stars, nil
}

// RecomputeAll rebuilds stars for every prompt and returns how many were processed.
func (r *Reconciler) RecomputeAll(ctx context.Context) (int, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.Prompt{}).Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("list prompts: %w", err)
	}
	for _, id := range ids {
		if _, err := r.RecomputeStars(ctx, id); err != nil {
			return 0, fmt.Errorf("recompute %s: %w", id, err)
		}
	}
	return len(ids), nil
}

type SweepResult struct {
	Ratings  int64 // ratings whose prompt is gone
	Comments int64 // comments whose prompt is gone
	Replies  int64 // replies whose parent comment is gone
}

func (s SweepResult) Total() int64 {
	return s.Ratings + s.Comments + s.Replies
}

// Sweep deletes ratings and comments left behind by prompts or comments removed
// without a cascade.
func (r *Reconciler) Sweep(ctx context.Context) (SweepResult, error) {
	ctx, span := startSpan(ctx, "Reconciler.Sweep", "")
	defer span.End()

	var res SweepResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		livePrompts := func() *gorm.DB { return tx.Model(&models.Prompt{}).Select("id") }

		ratings := tx.Where("prompt_id NOT IN (?)", livePrompts()).Delete(&models.StarRating{})
		if ratings.Error != nil {
			return ratings.Error
		}
		res.Ratings = ratings.RowsAffected

		comments := tx.Where("prompt_id NOT IN (?)", livePrompts()).Delete(&models.Comment{})
		if comments.Error != nil {
			return comments.Error
		}
		res.Comments = comments.RowsAffected

		// Each pass removes one level of a dangling thread.
		for {
			parents := tx.Model(&models.Comment{}).Select("id")
			replies := tx.Where("parent_id IS NOT NULL AND parent_id NOT IN (?)", parents).
				Delete(&models.Comment{})
			if replies.Error != nil {
				return replies.Error
			}
			if replies.RowsAffected == 0 {
				return nil
			}
			res.Replies += replies.RowsAffected
		}
	})
	if err != nil {
		recordError(span, err)
		return SweepResult{}, fmt.Errorf("sweep: %w", err)
	}
	return res, nil
}
