package controllers

import (
	"context"
	"net/http"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type bookmarkOp func(ctx context.Context, actor services.Actor, target bson.ObjectID) error

func bookmarkHandler(op bookmarkOp, status int, body gin.H) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		target, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := op(c.Request.Context(), actor, target); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(status, body)
	}
}

// PUT /me/favorites/:id (freelancer id)
func AddFavorite(bookmarks *services.BookmarkService) gin.HandlerFunc {
	return bookmarkHandler(bookmarks.AddFavorite, http.StatusOK, gin.H{"favorited": true})
}

// DELETE /me/favorites/:id
func RemoveFavorite(bookmarks *services.BookmarkService) gin.HandlerFunc {
	return bookmarkHandler(bookmarks.RemoveFavorite, http.StatusOK, gin.H{"favorited": false})
}

// GET /me/favorites
func GetFavorites(bookmarks *services.BookmarkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		p := pagination(c)
		items, total, err := bookmarks.ListFavorites(c.Request.Context(), actor, p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// PUT /me/saved-projects/:id
func SaveProject(bookmarks *services.BookmarkService) gin.HandlerFunc {
	return bookmarkHandler(bookmarks.SaveProject, http.StatusOK, gin.H{"saved": true})
}

// DELETE /me/saved-projects/:id
func UnsaveProject(bookmarks *services.BookmarkService) gin.HandlerFunc {
	return bookmarkHandler(bookmarks.UnsaveProject, http.StatusOK, gin.H{"saved": false})
}

// GET /me/saved-projects
func GetSavedProjects(bookmarks *services.BookmarkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		p := pagination(c)
		items, total, err := bookmarks.ListSaved(c.Request.Context(), actor, p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}
