package controllers

import (
	"net/http"
	"strings"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-gonic/gin"
)

// POST /admin/users
func CreateUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var body dto.CreateUserDTO
		if !bindJSON(c, &body) {
			return
		}
		user, err := users.Create(c.Request.Context(), services.NewAccount{
			FirstName:  body.FirstName,
			LastName:   body.LastName,
			Username:   body.Username,
			Email:      body.Email,
			Password:   body.Password,
			Role:       models.Role(body.Role),
			Phone:      body.Phone,
			Country:    body.Country,
			City:       body.City,
			CreatedBy:  &actor.ID,
			Client:     body.Client,
			Freelancer: body.Freelancer,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

// GET /admin/users?role=&q=&status=&skill=
func GetUsers(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		items, total, err := users.List(c.Request.Context(), services.UserFilter{
			Role:   strings.ToUpper(strings.TrimSpace(c.Query("role"))),
			Q:      strings.TrimSpace(c.Query("q")),
			Status: strings.TrimSpace(c.Query("status")),
			Skill:  strings.TrimSpace(c.Query("skill")),
		}, p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /admin/users/:id
func GetUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		user, err := users.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// PATCH /admin/users/:id
func UpdateUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.AdminUpdateUserDTO
		if !bindJSON(c, &body) {
			return
		}
		user, err := users.AdminUpdate(c.Request.Context(), id, actor.ID, body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// DELETE /admin/users/:id
func DeleteUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := users.Delete(c.Request.Context(), id, actor.ID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// POST /admin/users/:id/ban and /admin/users/:id/unban
func SetUserBanned(users *services.UserService, banned bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body dto.BanUserDTO
		if c.Request.ContentLength > 0 && !bindJSON(c, &body) {
			return
		}
		user, err := users.SetBanned(c.Request.Context(), id, actor.ID, banned, body.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// GET /me
func GetMe(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		user, err := users.GetActive(c.Request.Context(), actor.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// PATCH /me
func UpdateMe(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var body dto.UpdateUserDTO
		if !bindJSON(c, &body) {
			return
		}
		user, err := users.UpdateProfile(c.Request.Context(), actor.ID, body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// POST /me/avatar (multipart: avatar)
func UploadAvatar(users *services.UserService, images *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		up, ok := optionalFile(c, images, "avatar")
		if !ok {
			return
		}
		if up == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
			return
		}
		user, err := users.UploadAvatar(c.Request.Context(), actor.ID, up.File, up.ContentType)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// GET /freelancers?q=&skill=&available=true
func GetFreelancers(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		available, _ := utils.ParseBoolQuery(c.Query("available"))
		items, total, err := users.ListFreelancers(c.Request.Context(),
			strings.TrimSpace(c.Query("q")), strings.TrimSpace(c.Query("skill")),
			available != nil && *available, p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// GET /freelancers/:id
func GetFreelancer(users *services.UserService, reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		user, err := users.GetFreelancer(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		summary, err := reviews.Summary(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"freelancer": user, "rating": summary})
	}
}
