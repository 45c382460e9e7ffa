package services

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/database"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/mailer"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

type InvitationService struct {
	invitations *mongo.Collection
	users       *UserService
	mailer      mailer.Mailer
	ttl         time.Duration
	baseURL     string
	logger      *zap.Logger
}

func NewInvitationService(db *database.DB, users *UserService, m mailer.Mailer, ttl time.Duration, baseURL string, logger *zap.Logger) *InvitationService {
	return &InvitationService{
		invitations: db.Collection(database.InvitationsCollection),
		users:       users,
		mailer:      m,
		ttl:         ttl,
		baseURL:     baseURL,
		logger:      logger,
	}
}

// Invite issues a new invitation and mails the link; older pending invitations for the same
// email are revoked.
func (s *InvitationService) Invite(ctx context.Context, actor bson.ObjectID, in dto.InviteUserDTO) (*models.Invitation, error) {
	email := utils.NormalizeEmail(in.Email)
	role := models.Role(in.Role)
	if !role.Valid() {
		return nil, invalid("unknown role %q", in.Role)
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict("a user with this email already exists")
	}

	token, err := utils.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	if _, err := s.invitations.UpdateMany(ctx,
		bson.M{"email": email, "status": models.InvitationPending},
		bson.M{"$set": bson.M{"status": models.InvitationRevoked, "updatedAt": now}}); err != nil {
		return nil, err
	}

	inv := models.Invitation{
		Email:     email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      role,
		TokenHash: utils.HashToken(token),
		Status:    models.InvitationPending,
		InvitedBy: actor,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := s.invitations.InsertOne(ctx, inv)
	if err != nil {
		return nil, err
	}
	inv.ID = res.InsertedID.(bson.ObjectID)

	link := s.baseURL + "/accept-invitation?token=" + url.QueryEscape(token)
	name := (&models.User{FirstName: in.FirstName, LastName: in.LastName}).FullName()
	if err := s.mailer.Send(ctx, mailer.InvitationMessage(email, name, string(role), link, inv.ExpiresAt)); err != nil {
		s.logger.Error("invitation email failed", zap.Error(err), zap.String("invitation_id", inv.ID.Hex()))
	}
	return &inv, nil
}

func (s *InvitationService) List(ctx context.Context, status string, p utils.Pagination) ([]models.Invitation, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return findPage[models.Invitation](ctx, s.invitations, filter, bson.D{{Key: "createdAt", Value: -1}}, p)
}

func (s *InvitationService) Revoke(ctx context.Context, id bson.ObjectID) (*models.Invitation, error) {
	inv, err := updateAndReturn[models.Invitation](ctx, s.invitations,
		bson.M{"_id": id, "status": models.InvitationPending},
		bson.M{"$set": bson.M{"status": models.InvitationRevoked, "updatedAt": time.Now().UTC()}},
		"invitation")
	if errors.Is(err, ErrNotFound) {
		if _, getErr := findOne[models.Invitation](ctx, s.invitations, bson.M{"_id": id}, "invitation"); getErr != nil {
			return nil, getErr
		}
		return nil, conflict("invitation is no longer pending")
	}
	return inv, err
}

// Accept creates the invited account. The invitation is claimed first so a token can only
// ever produce one user.
func (s *InvitationService) Accept(ctx context.Context, in dto.AcceptInvitationDTO) (*models.User, error) {
	now := time.Now().UTC()
	inv, err := updateAndReturn[models.Invitation](ctx, s.invitations,
		bson.M{
			"tokenHash": utils.HashToken(in.Token),
			"status":    models.InvitationPending,
			"expiresAt": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"status": models.InvitationAccepted, "acceptedAt": now, "updatedAt": now}},
		"invitation")
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalid("invitation is invalid or expired")
		}
		return nil, err
	}

	first, last := in.FirstName, in.LastName
	if first == "" {
		first = inv.FirstName
	}
	if last == "" {
		last = inv.LastName
	}
	user, err := s.users.Create(ctx, NewAccount{
		FirstName: first,
		LastName:  last,
		Email:     inv.Email,
		Password:  in.Password,
		Role:      inv.Role,
		CreatedBy: &inv.InvitedBy,
	})
	if err != nil {
		// give the token back so the invitee can retry
		_, _ = s.invitations.UpdateByID(ctx, inv.ID, bson.M{
			"$set":   bson.M{"status": models.InvitationPending, "updatedAt": now},
			"$unset": bson.M{"acceptedAt": ""},
		})
		return nil, err
	}

	if err := s.users.setFields(ctx, user.ID, bson.M{"emailVerified": true}); err != nil {
		s.logger.Warn("invited user not marked verified", zap.Error(err))
	}
	user.EmailVerified = true
	if _, err := s.invitations.UpdateByID(ctx, inv.ID, bson.M{"$set": bson.M{"userId": user.ID}}); err != nil {
		s.logger.Warn("invitation not linked to user", zap.Error(err), zap.String("invitation_id", inv.ID.Hex()))
	}
	return user, nil
}
