// Package rating recomputes a user's stored review average. Only verified
// platform reviews count; external testimonials are listed separately.
package rating

import (
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentlink/talentlink/internal/models"
)

// Recompute recalculates the reviewee's rating_avg as the mean of verified
// platform ratings, 0.0 when none exist, rounded to two decimals. Called after
// every review create, update or delete.
func Recompute(db *gorm.DB, revieweeID uuid.UUID) (float64, error) {
	var avg *float64
	err := db.Model(&models.Review{}).
		Select("AVG(rating)").
		Where("reviewee_id = ? AND is_verified = ? AND review_type = ?",
			revieweeID, true, models.ReviewTypePlatform).
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}

	value := 0.0
	if avg != nil {
		value = math.Round(*avg*100) / 100
	}

	err = db.Model(&models.User{}).
		Where("id = ?", revieweeID).
		Update("rating_avg", value).Error
	return value, err
}
