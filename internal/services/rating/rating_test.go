package rating_test

import (
	"testing"

	"github.com/talentlink/talentlink/internal/models"
	"github.com/talentlink/talentlink/internal/services/rating"
	"github.com/talentlink/talentlink/internal/testutil"
)

func TestRecomputeMeanOfPlatformReviews(t *testing.T) {
	db := testutil.OpenDB(t)
	reviewee := testutil.CreateUser(t, db, "freelancer", models.RoleFreelancer)

	for i, r := range []int{5, 3, 4} {
		reviewer := testutil.CreateUser(t, db, "reviewer"+string(rune('a'+i)), models.RoleClient)
		review := models.Review{
			ReviewerID: reviewer.ID,
			RevieweeID: reviewee.ID,
			Rating:     r,
			ReviewType: models.ReviewTypePlatform,
			IsVerified: true,
		}
		if err := db.Create(&review).Error; err != nil {
			t.Fatal(err)
		}
	}

	avg, err := rating.Recompute(db, reviewee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if avg != 4.0 {
		t.Errorf("avg = %v, want 4.0", avg)
	}

	var u models.User
	if err := db.First(&u, "id = ?", reviewee.ID).Error; err != nil {
		t.Fatal(err)
	}
	if u.RatingAvg != 4.0 {
		t.Errorf("stored rating_avg = %v, want 4.0", u.RatingAvg)
	}
}

func TestRecomputeRoundsToTwoDecimals(t *testing.T) {
	db := testutil.OpenDB(t)
	reviewee := testutil.CreateUser(t, db, "freelancer", models.RoleFreelancer)

	for i, r := range []int{5, 4, 4} {
		reviewer := testutil.CreateUser(t, db, "reviewer"+string(rune('a'+i)), models.RoleClient)
		review := models.Review{
			ReviewerID: reviewer.ID,
			RevieweeID: reviewee.ID,
			Rating:     r,
			ReviewType: models.ReviewTypePlatform,
			IsVerified: true,
		}
		if err := db.Create(&review).Error; err != nil {
			t.Fatal(err)
		}
	}

	avg, err := rating.Recompute(db, reviewee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if avg != 4.33 {
		t.Errorf("avg = %v, want 4.33", avg)
	}
}

func TestRecomputeZeroWhenNoReviews(t *testing.T) {
	db := testutil.OpenDB(t)
	reviewee := testutil.CreateUser(t, db, "freelancer", models.RoleFreelancer)

	avg, err := rating.Recompute(db, reviewee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if avg != 0.0 {
		t.Errorf("avg = %v, want 0.0", avg)
	}
}

func TestRecomputeFiltersExternalAndUnverified(t *testing.T) {
	db := testutil.OpenDB(t)
	reviewee := testutil.CreateUser(t, db, "freelancer", models.RoleFreelancer)
	reviewer := testutil.CreateUser(t, db, "reviewer", models.RoleClient)

	reviews := []models.Review{
		{ReviewerID: reviewer.ID, RevieweeID: reviewee.ID, Rating: 5, ReviewType: models.ReviewTypePlatform, IsVerified: true},
		// External testimonials never count, verified or not.
		{ReviewerID: reviewee.ID, RevieweeID: reviewee.ID, Rating: 1, ReviewType: models.ReviewTypeExternal, IsVerified: true},
		// Unverified platform reviews are excluded too.
		{ReviewerID: reviewee.ID, RevieweeID: reviewee.ID, Rating: 1, ReviewType: models.ReviewTypePlatform, IsVerified: false},
	}
	for i := range reviews {
		if err := db.Create(&reviews[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	avg, err := rating.Recompute(db, reviewee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if avg != 5.0 {
		t.Errorf("avg = %v, want 5.0", avg)
	}
}
