package controllers

import (
	"net/http"
	"strings"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/gin-gonic/gin"
)

// POST /visitors/track (public, optional auth)
func TrackVisit(visitors *services.VisitorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.TrackVisitDTO
		if !bindJSON(c, &body) {
			return
		}
		meta := services.VisitMeta{UserAgent: c.Request.UserAgent(), IP: c.ClientIP()}
		if actor := optionalActor(c); actor != nil {
			meta.UserID = &actor.ID
		}
		if _, err := visitors.Track(c.Request.Context(), body, meta); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GET /admin/visitors/stats?from=2006-01-02&to=2006-01-02
func GetVisitorStats(visitors *services.VisitorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := visitors.Stats(c.Request.Context(), strings.TrimSpace(c.Query("from")), strings.TrimSpace(c.Query("to")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// GET /admin/visitors/realtime
func GetRealtimeVisitors(visitors *services.VisitorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rt, err := visitors.Realtime(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if rt == nil {
			c.JSON(http.StatusOK, gin.H{"enabled": false})
			return
		}
		c.JSON(http.StatusOK, rt)
	}
}

// GET /admin/visitors?path=&sessionId=
func GetVisits(visitors *services.VisitorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		items, total, err := visitors.List(c.Request.Context(),
			strings.TrimSpace(c.Query("path")), strings.TrimSpace(c.Query("sessionId")), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}
