package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/talentlink/talentlink/internal/models"
	"github.com/talentlink/talentlink/internal/services/notify"
	"github.com/talentlink/talentlink/internal/services/rating"
)

type ReviewHandler struct {
	DB     *gorm.DB
	Notify *notify.Service
}

func NewReviewHandler(db *gorm.DB, n *notify.Service) *ReviewHandler {
	return &ReviewHandler{DB: db, Notify: n}
}

type ReviewReq struct {
	ContractID  string `json:"contract_id"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
	ReviewType  string `json:"review_type"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
}

// Create handles both review kinds. Platform reviews require a completed
// contract the reviewer is party to and are verified immediately. External
// testimonials carry unverified third-party claims and never enter the
// rating average.
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}

	var req ReviewReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return fail(c, fiber.StatusBadRequest, "Rating must be between 1 and 5")
	}

	reviewType := models.ReviewType(req.ReviewType)
	if reviewType == "" {
		reviewType = models.ReviewTypePlatform
	}

	var review models.Review

	switch reviewType {
	case models.ReviewTypePlatform:
		var contract models.Contract
		if err := h.DB.First(&contract, "id = ?", req.ContractID).Error; err != nil {
			return fail(c, fiber.StatusNotFound, "Contract not found")
		}
		if !contract.IsParty(userID) {
			return fail(c, fiber.StatusForbidden, "Not authorized")
		}
		if contract.Status != models.ContractStatusCompleted {
			return fail(c, fiber.StatusBadRequest, "Reviews can only be left on completed contracts")
		}

		var existing models.Review
		if err := h.DB.Where("contract_id = ? AND reviewer_id = ?", contract.ID, userID).
			First(&existing).Error; err == nil {
			return fail(c, fiber.StatusBadRequest, "You have already reviewed this contract")
		}

		review = models.Review{
			ContractID: &contract.ID,
			ReviewerID: userID,
			RevieweeID: contract.OtherParty(userID),
			Rating:     req.Rating,
			Comment:    req.Comment,
			ReviewType: models.ReviewTypePlatform,
			IsVerified: true,
		}

	case models.ReviewTypeExternal:
		if strings.TrimSpace(req.ClientName) == "" {
			return fail(c, fiber.StatusBadRequest, "client_name is required for external reviews")
		}
		review = models.Review{
			ReviewerID:  userID,
			RevieweeID:  userID,
			Rating:      req.Rating,
			Comment:     req.Comment,
			ReviewType:  models.ReviewTypeExternal,
			IsVerified:  true,
			ClientName:  strings.TrimSpace(req.ClientName),
			ClientEmail: strings.TrimSpace(req.ClientEmail),
		}

	default:
		return fail(c, fiber.StatusBadRequest, "Invalid review_type")
	}

	if err := h.DB.Create(&review).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to create review")
	}

	if _, err := rating.Recompute(h.DB, review.RevieweeID); err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to update rating")
	}

	if review.ReviewType == models.ReviewTypePlatform {
		h.Notify.Notify(review.RevieweeID, models.NotificationTypeReview,
			"New review received",
			"You received a new review.",
			map[string]interface{}{
				"review_id": review.ID,
				"rating":    review.Rating,
			})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    review,
	})
}

// ListForUser returns a user's received reviews, newest first.
func (h *ReviewHandler) ListForUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	q := h.DB.Preload("Reviewer").Where("reviewee_id = ?", id)
	if rt := c.Query("review_type"); rt != "" {
		q = q.Where("review_type = ?", rt)
	}

	var reviews []models.Review
	if err := q.Order("created_at DESC").Find(&reviews).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch reviews")
	}

	var user models.User
	ratingAvg := 0.0
	if err := h.DB.First(&user, "id = ?", id).Error; err == nil {
		ratingAvg = user.RatingAvg
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"reviews":    reviews,
			"rating_avg": ratingAvg,
		},
	})
}

type reviewUpdateReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *ReviewHandler) Update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var review models.Review
	if err := h.DB.First(&review, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Review not found")
	}
	if review.ReviewerID != userID {
		return fail(c, fiber.StatusForbidden, "Not authorized")
	}

	var req reviewUpdateReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Rating != 0 {
		if req.Rating < 1 || req.Rating > 5 {
			return fail(c, fiber.StatusBadRequest, "Rating must be between 1 and 5")
		}
		review.Rating = req.Rating
	}
	if req.Comment != "" {
		review.Comment = req.Comment
	}

	if err := h.DB.Save(&review).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to update review")
	}

	if _, err := rating.Recompute(h.DB, review.RevieweeID); err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to update rating")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    review,
	})
}

func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return failFiber(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return failFiber(c, err)
	}

	var review models.Review
	if err := h.DB.First(&review, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Review not found")
	}
	if review.ReviewerID != userID {
		return fail(c, fiber.StatusForbidden, "Not authorized")
	}

	if err := h.DB.Delete(&review).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to delete review")
	}

	if _, err := rating.Recompute(h.DB, review.RevieweeID); err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to update rating")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Review deleted",
	})
}
