package controllers

import (
	"net/http"
	"strings"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/gin-gonic/gin"
)

// POST /admin/invitations
func InviteUser(invitations *services.InvitationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		var body dto.InviteUserDTO
		if !bindJSON(c, &body) {
			return
		}
		inv, err := invitations.Invite(c.Request.Context(), actor.ID, body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, inv)
	}
}

// GET /admin/invitations?status=PENDING
func GetInvitations(invitations *services.InvitationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := pagination(c)
		items, total, err := invitations.List(c.Request.Context(), strings.ToUpper(strings.TrimSpace(c.Query("status"))), p)
		if err != nil {
			respondError(c, err)
			return
		}
		listResponse(c, items, p, total)
	}
}

// POST /admin/invitations/:id/revoke
func RevokeInvitation(invitations *services.InvitationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		inv, err := invitations.Revoke(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, inv)
	}
}

// POST /invitations/accept
func AcceptInvitation(invitations *services.InvitationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.AcceptInvitationDTO
		if !bindJSON(c, &body) {
			return
		}
		user, err := invitations.Accept(c.Request.Context(), body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}
