package controllers

import (
	"net/http"
	"strings"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-gonic/gin"
)

// POST /admin/media (multipart: file)
// Videos are queued for compression; the job is returned with the upload.
func UploadMedia(media *services.MediaService, files *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		up, ok := optionalFile(c, files, "file")
		if !ok {
			return
		}
		if up == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		res, err := media.Upload(c.Request.Context(), actor.ID, *up)
		if err != nil {
			respondError(c, err)
			return
		}
		status := http.StatusCreated
		if res.Job != nil {
			status = http.StatusAccepted
		}
		c.JSON(status, res)
	}
}

// DELETE /admin/media?object=uploads/abc.png
func DeleteMedia(media *services.MediaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		object := strings.TrimSpace(c.Query("object"))
		if object == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "object is required"})
			return
		}
		if err := media.DeleteObject(c.Request.Context(), object); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// POST /admin/videos/compress
func CompressVideo(media *services.MediaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var body dto.CompressVideoDTO
		if !bindJSON(c, &body) {
			return
		}
		job, err := media.RequestCompression(c.Request.Context(), actor.ID, body.SourceObject)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, job)
	}
}

// GET /admin/videos/jobs?status=
func GetVideoJobs(media *services.MediaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		items, total, err := media.ListJobs(c.Request.Context(), strings.ToUpper(strings.TrimSpace(c.Query("status"))), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /admin/videos/jobs/:id
func GetVideoJob(media *services.MediaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		job, err := media.GetJob(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

// GET /admin/dashboard
func GetDashboard(dashboard *services.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		overview, err := dashboard.Overview(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, overview)
	}
}
