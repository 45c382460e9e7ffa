package controllers

import (
	"net/http"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-gonic/gin"
)

// POST /projects/:id/reviews
func AddReview(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		projectID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.CreateReviewDTO
		if !bindJSON(c, &body) {
			return
		}
		review, err := reviews.Create(c.Request.Context(), projectID, actor, body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, review)
	}
}

// GET /projects/:id/reviews
func GetProjectReviews(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := paramID(c, "id")
		if !ok {
			return
		}
		p := pagination(c)
		items, total, err := reviews.ListForProject(c.Request.Context(), projectID, p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /users/:id/reviews
func GetUserReviews(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := paramID(c, "id")
		if !ok {
			return
		}
		p := pagination(c)
		items, total, err := reviews.ListForUser(c.Request.Context(), userID, p)
		if err != nil {
			respondError(c, err)
			return
		}
		summary, err := reviews.Summary(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		if items == nil {
			items = []models.Review{}
		}
		c.JSON(http.StatusOK, gin.H{
			"items":   items,
			"page":    p.Page,
			"limit":   p.Limit,
			"total":   total,
			"summary": summary,
		})
	}
}

// GET /admin/reviews?includeDeleted=true&minRating=&maxRating=
func GetAllReviews(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		includeDeleted, _ := utils.ParseBoolQuery(c.Query("includeDeleted"))
		items, total, err := reviews.ListAll(c.Request.Context(),
			includeDeleted != nil && *includeDeleted,
			utils.ParseIntDefault(c.Query("minRating"), 0),
			utils.ParseIntDefault(c.Query("maxRating"), 0), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// DELETE /admin/reviews/:id
func DeleteReview(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := reviews.Delete(c.Request.Context(), id, actor.ID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
