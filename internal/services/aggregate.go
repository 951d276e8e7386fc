package services

import (
	"math"

	"promptdir/internal/models"

	"gorm.io/gorm"
)

// roundHalfUp rounds .5 upwards, the way the stars average has always been displayed.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// recomputeStars sets prompts.stars to the rounded mean of the prompt's ratings
// (0 when it has none) and returns the new value. Run it inside the transaction that
// changed the ratings.
func recomputeStars(tx *gorm.DB, promptID string) (int, error) {
	var agg struct {
		Total     int64
		RatingSum int64
	}
	if err := tx.Model(&models.StarRating{}).
		Select("COUNT(*) AS total, COALESCE(SUM(rating), 0) AS rating_sum").
		Where("prompt_id = ?", promptID).
		Scan(&agg).Error; err != nil {
		return 0, err
	}

	stars := 0
	if agg.Total > 0 {
		stars = roundHalfUp(float64(agg.RatingSum) / float64(agg.Total))
	}

	if err := tx.Model(&models.Prompt{}).
		Where("id = ?", promptID).
		UpdateColumn("stars", stars).Error; err != nil {
		return 0, err
	}
	return stars, nil
}
