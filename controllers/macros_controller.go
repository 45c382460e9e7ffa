package controllers

import (
	"net/http"
	"strings"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-gonic/gin"
)

// POST /admin/macros
func AddMacro(macros *services.MacroService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var body dto.CreateMacroDTO
		if !bindJSON(c, &body) {
			return
		}
		m, err := macros.Create(c.Request.Context(), actor.ID, body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, m)
	}
}

// GET /admin/macros?q=&category=&active=
func GetMacros(macros *services.MacroService) gin.HandlerFunc {
	return func(c *gin.Context) {
		active, err := utils.ParseBoolQuery(c.Query("active"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid active value"})
			return
		}
		p := pagination(c)
		items, total, err := macros.List(c.Request.Context(),
			strings.TrimSpace(c.Query("q")), strings.TrimSpace(c.Query("category")), active, p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /admin/macros/:id
func GetMacro(macros *services.MacroService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		m, err := macros.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

// PATCH /admin/macros/:id
func UpdateMacro(macros *services.MacroService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.UpdateMacroDTO
		if !bindJSON(c, &body) {
			return
		}
		m, err := macros.Update(c.Request.Context(), id, actor.ID, body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

// DELETE /admin/macros/:id
func DeleteMacro(macros *services.MacroService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := macros.Delete(c.Request.Context(), id, actor.ID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// POST /admin/macros/:id/render
func RenderMacro(macros *services.MacroService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.RenderMacroDTO
		if !bindJSON(c, &body) {
			return
		}
		out, err := macros.Render(c.Request.Context(), id, body.Values)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}
