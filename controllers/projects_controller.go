package controllers

import (
	"net/http"
	"strings"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-gonic/gin"
)

func projectFilter(c *gin.Context) services.ProjectFilter {
	featured, _ := utils.ParseBoolQuery(c.Query("featured"))
	return services.ProjectFilter{
		Q:          strings.TrimSpace(c.Query("q")),
		Tag:        c.Query("tag"),
		Skill:      c.Query("skill"),
		CategoryID: strings.TrimSpace(c.Query("categoryId")),
		Type:       strings.ToUpper(strings.TrimSpace(c.Query("type"))),
		BudgetMin:  strings.TrimSpace(c.Query("budgetMin")),
		BudgetMax:  strings.TrimSpace(c.Query("budgetMax")),
		Status:     strings.ToUpper(strings.TrimSpace(c.Query("status"))),
		Featured:   featured,
		Sort:       strings.TrimSpace(c.Query("sort")),
	}
}

// GET /projects (OPEN only)
func GetPublicProjects(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		items, total, err := projects.ListPublic(c.Request.Context(), projectFilter(c), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /admin/projects (every status)
func GetAllProjects(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		items, total, err := projects.ListAll(c.Request.Context(), projectFilter(c), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /me/projects: owned projects for clients, hired-on projects for freelancers
func GetMyProjects(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		p := pagination(c)
		items, total, err := projects.ListMine(c.Request.Context(), actor, projectFilter(c), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /projects/:id
func GetProject(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		project, err := projects.View(c.Request.Context(), id, optionalActor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, project)
	}
}

// POST /projects
// multipart/form-data:
//   - data: JSON string (CreateProjectDTO)
//   - attachments: optional files
func AddProject(projects *services.ProjectService, files *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var body dto.CreateProjectDTO
		uploads, ok := bindWithAttachments(c, files, &body)
		if !ok {
			return
		}
		project, err := projects.Create(c.Request.Context(), actor, body, uploads)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, project)
	}
}

// PATCH /projects/:id
func UpdateProject(projects *services.ProjectService, files *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.UpdateProjectDTO
		uploads, ok := bindWithAttachments(c, files, &body)
		if !ok {
			return
		}
		project, err := projects.Update(c.Request.Context(), id, actor, body, uploads)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, project)
	}
}

// PATCH /projects/:id/status
func UpdateProjectStatus(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.UpdateProjectStatusDTO
		if !bindJSON(c, &body) {
			return
		}
		project, err := projects.SetStatus(c.Request.Context(), id, actor, strings.ToUpper(strings.TrimSpace(body.Status)))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, project)
	}
}

// DELETE /projects/:id
func DeleteProject(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := projects.Delete(c.Request.Context(), id, actor); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
