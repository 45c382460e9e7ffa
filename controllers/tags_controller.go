package controllers

import (
	"net/http"
	"strings"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/gin-gonic/gin"
)

// GET /tags?type=SKILL&q=
func GetTags(tags *services.TagService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		items, total, err := tags.List(c.Request.Context(),
			strings.ToUpper(strings.TrimSpace(c.Query("type"))), strings.TrimSpace(c.Query("q")), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// POST /admin/tags
func AddTag(tags *services.TagService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateTagDTO
		if !bindJSON(c, &body) {
			return
		}
		tag, err := tags.Create(c.Request.Context(), body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, tag)
	}
}

// PATCH /admin/tags/:id
func UpdateTag(tags *services.TagService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.UpdateTagDTO
		if !bindJSON(c, &body) {
			return
		}
		tag, err := tags.Update(c.Request.Context(), id, body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tag)
	}
}

// DELETE /admin/tags/:id
func DeleteTag(tags *services.TagService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := tags.Delete(c.Request.Context(), id, actor.ID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
