package controllers

import (
	"net/http"
	"strings"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-gonic/gin"
)

// POST /admin/categories
// multipart/form-data:
//   - data: JSON string (CreateCategoryDTO)
//   - image: optional picture
func AddCategory(categories *services.CategoryService, images *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateCategoryDTO
		if !bindData(c, &body) {
			return
		}
		image, ok := optionalFile(c, images, "image")
		if !ok {
			return
		}
		cat, err := categories.Create(c.Request.Context(), body, image)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, cat)
	}
}

// GET /categories?q= (public: active only) and /admin/categories
func GetCategories(categories *services.CategoryService, activeOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		items, total, err := categories.List(c.Request.Context(), strings.TrimSpace(c.Query("q")), activeOnly, p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /categories/:id
func GetCategory(categories *services.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		cat, err := categories.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cat)
	}
}

// GET /categories/slug/:slug
func GetCategoryBySlug(categories *services.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := strings.TrimSpace(c.Param("slug"))
		if slug == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no slug provided"})
			return
		}
		cat, err := categories.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cat)
	}
}

// PATCH /admin/categories/:id
// Accepts JSON, or multipart with "data" and an optional replacement "image".
func UpdateCategory(categories *services.CategoryService, images *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.UpdateCategoryDTO
		var image *services.Upload
		if isMultipart(c) {
			if !bindData(c, &body) {
				return
			}
			if image, ok = optionalFile(c, images, "image"); !ok {
				return
			}
		} else if !bindJSON(c, &body) {
			return
		}
		cat, err := categories.Update(c.Request.Context(), id, body, image)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cat)
	}
}

// DELETE /admin/categories/:id
func DeleteCategory(categories *services.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := categories.Delete(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
