package controllers

import (
	"net/http"
	"strings"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-gonic/gin"
)

// ====== Pages ======

// POST /admin/pages
func AddPage(cms *services.CMSService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var body dto.CreatePageDTO
		if !bindJSON(c, &body) {
			return
		}
		page, err := cms.CreatePage(c.Request.Context(), actor.ID, body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, page)
	}
}

// GET /admin/pages?status=
func GetPages(cms *services.CMSService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		items, total, err := cms.ListPages(c.Request.Context(), strings.ToUpper(strings.TrimSpace(c.Query("status"))), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /admin/pages/:id
func GetPage(cms *services.CMSService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		page, err := cms.GetPage(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GET /pages/:slug (published only)
func GetPublishedPage(cms *services.CMSService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := cms.GetPublishedPage(c.Request.Context(), strings.TrimSpace(c.Param("slug")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// PATCH /admin/pages/:id
func UpdatePage(cms *services.CMSService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.UpdatePageDTO
		if !bindJSON(c, &body) {
			return
		}
		page, err := cms.UpdatePage(c.Request.Context(), id, actor.ID, body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// DELETE /admin/pages/:id
func DeletePage(cms *services.CMSService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := cms.DeletePage(c.Request.Context(), id, actor.ID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// ====== Blogs ======

func blogFilter(c *gin.Context) services.BlogFilter {
	return services.BlogFilter{
		Q:      strings.TrimSpace(c.Query("q")),
		Tag:    c.Query("tag"),
		Status: strings.ToUpper(strings.TrimSpace(c.Query("status"))),
	}
}

// POST /admin/blogs
// multipart/form-data:
//   - data: JSON string (CreateBlogDTO)
//   - image: optional cover
func AddBlog(cms *services.CMSService, images *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var body dto.CreateBlogDTO
		var cover *services.Upload
		if isMultipart(c) {
			if !bindData(c, &body) {
				return
			}
			if cover, ok = optionalFile(c, images, "image"); !ok {
				return
			}
		} else if !bindJSON(c, &body) {
			return
		}
		blog, err := cms.CreateBlog(c.Request.Context(), actor.ID, body, cover)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, blog)
	}
}

// PATCH /admin/blogs/:id
func UpdateBlog(cms *services.CMSService, images *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.UpdateBlogDTO
		var cover *services.Upload
		if isMultipart(c) {
			if !bindData(c, &body) {
				return
			}
			if cover, ok = optionalFile(c, images, "image"); !ok {
				return
			}
		} else if !bindJSON(c, &body) {
			return
		}
		blog, err := cms.UpdateBlog(c.Request.Context(), id, actor.ID, body, cover)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, blog)
	}
}

// GET /admin/blogs?q=&tag=&status=
func GetBlogs(cms *services.CMSService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		items, total, err := cms.ListBlogs(c.Request.Context(), blogFilter(c), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /admin/blogs/:id
func GetBlog(cms *services.CMSService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		blog, err := cms.GetBlog(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, blog)
	}
}

// GET /blogs?q=&tag=
func GetPublishedBlogs(cms *services.CMSService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		items, total, err := cms.ListPublishedBlogs(c.Request.Context(), blogFilter(c), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /blogs/:slug
func ReadBlog(cms *services.CMSService) gin.HandlerFunc {
	return func(c *gin.Context) {
		blog, err := cms.ReadPublishedBlog(c.Request.Context(), strings.TrimSpace(c.Param("slug")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, blog)
	}
}

// DELETE /admin/blogs/:id
func DeleteBlog(cms *services.CMSService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := cms.DeleteBlog(c.Request.Context(), id, actor.ID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
