package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// POST /projects/:id/submissions
func SubmitWork(submissions *services.SubmissionService, files *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		projectID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.CreateSubmissionDTO
		uploads, ok := bindWithAttachments(c, files, &body)
		if !ok {
			return
		}
		sub, err := submissions.Submit(c.Request.Context(), projectID, actor, body, uploads)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, sub)
	}
}

// GET /projects/:id/submissions
func GetProjectSubmissions(submissions *services.SubmissionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		projectID, ok := paramID(c, "id")
		if !ok {
			return
		}
		p := pagination(c)
		items, total, err := submissions.ListForProject(c.Request.Context(), projectID, actor, p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /admin/submissions?status=
func GetAllSubmissions(submissions *services.SubmissionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		items, total, err := submissions.ListAll(c.Request.Context(), strings.ToUpper(strings.TrimSpace(c.Query("status"))), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// ReviewStep is one of the SubmissionService workflow methods.
type ReviewStep func(ctx context.Context, id bson.ObjectID, actor services.Actor, note string) (*models.Submission, error)

// ReviewSubmission serves the owner/admin workflow moves:
// POST /submissions/:id/start-review, /approve and /reject.
func ReviewSubmission(step ReviewStep) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.ReviewSubmissionDTO
		if c.Request.ContentLength > 0 && !bindJSON(c, &body) {
			return
		}
		sub, err := step(c.Request.Context(), id, actor, body.Note)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

// StartReviewStep adapts StartReview, which takes no note.
func StartReviewStep(submissions *services.SubmissionService) ReviewStep {
	return func(ctx context.Context, id bson.ObjectID, actor services.Actor, _ string) (*models.Submission, error) {
		return submissions.StartReview(ctx, id, actor)
	}
}
