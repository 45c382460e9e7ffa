package controllers

import (
	"net/http"
	"strings"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-gonic/gin"
)

// POST /projects/:id/applications
func Apply(applications *services.ApplicationService, files *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		projectID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.CreateApplicationDTO
		uploads, ok := bindWithAttachments(c, files, &body)
		if !ok {
			return
		}
		app, err := applications.Apply(c.Request.Context(), projectID, actor, body, uploads)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, app)
	}
}

// GET /projects/:id/applications (owner or admin)
func GetProjectApplications(applications *services.ApplicationService) gin.HandlerFunc {
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
		items, total, err := applications.ListForProject(c.Request.Context(), projectID, actor,
			strings.ToUpper(strings.TrimSpace(c.Query("status"))), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /me/applications
func GetMyApplications(applications *services.ApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		p := pagination(c)
		items, total, err := applications.ListMine(c.Request.Context(), actor,
			strings.ToUpper(strings.TrimSpace(c.Query("status"))), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /admin/applications
func GetAllApplications(applications *services.ApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		items, total, err := applications.ListAll(c.Request.Context(), strings.ToUpper(strings.TrimSpace(c.Query("status"))), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /applications/:id
func GetApplication(applications *services.ApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		app, err := applications.View(c.Request.Context(), id, actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, app)
	}
}

// PATCH /applications/:id/status (shortlist or reject)
func UpdateApplicationStatus(applications *services.ApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.UpdateApplicationStatusDTO
		if !bindJSON(c, &body) {
			return
		}
		app, err := applications.SetStatus(c.Request.Context(), id, actor, body.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, app)
	}
}

// POST /applications/:id/withdraw
func WithdrawApplication(applications *services.ApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		app, err := applications.Withdraw(c.Request.Context(), id, actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, app)
	}
}

// POST /applications/:id/hire
func HireApplicant(applications *services.ApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		app, err := applications.Hire(c.Request.Context(), id, actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, app)
	}
}
