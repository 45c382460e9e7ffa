package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRevoked  InvitationStatus = "REVOKED"
)

type Invitation struct {
	ID         bson.ObjectID    `bson:"_id,omitempty" json:"id"`
	Email      string           `bson:"email" json:"email"`
	FirstName  string           `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName   string           `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Role       Role             `bson:"role" json:"role"`
	TokenHash  string           `bson:"tokenHash" json:"-"`
	Status     InvitationStatus `bson:"status" json:"status"`
	InvitedBy  bson.ObjectID    `bson:"invitedBy" json:"invitedBy"`
	ExpiresAt  time.Time        `bson:"expiresAt" json:"expiresAt"`
	AcceptedAt *time.Time       `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	UserID     *bson.ObjectID   `bson:"userId,omitempty" json:"userId,omitempty"`
	CreatedAt  time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// Expired is true for pending invitations past their deadline.
func (i *Invitation) Expired(now time.Time) bool {
	return i.Status == InvitationPending && now.After(i.ExpiresAt)
}
