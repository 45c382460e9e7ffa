package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "PENDING"
	ApplicationShortlisted ApplicationStatus = "SHORTLISTED"
	ApplicationHired       ApplicationStatus = "HIRED"
	ApplicationRejected    ApplicationStatus = "REJECTED"
	ApplicationWithdrawn   ApplicationStatus = "WITHDRAWN"
)

// OpenApplicationStatuses are the statuses an application can still move out of.
var OpenApplicationStatuses = []ApplicationStatus{ApplicationPending, ApplicationShortlisted}

func (s ApplicationStatus) IsOpen() bool {
	return s == ApplicationPending || s == ApplicationShortlisted
}

type Application struct {
	ID            bson.ObjectID     `bson:"_id,omitempty" json:"id"`
	ProjectID     bson.ObjectID     `bson:"projectId" json:"projectId"`
	FreelancerID  bson.ObjectID     `bson:"freelancerId" json:"freelancerId"`
	CoverLetter   string            `bson:"coverLetter" json:"coverLetter"`
	BidAmount     string            `bson:"bidAmount" json:"bidAmount"`
	EstimatedDays int               `bson:"estimatedDays" json:"estimatedDays"`
	Attachments   []Attachment      `bson:"attachments" json:"attachments"`
	Status        ApplicationStatus `bson:"status" json:"status"`
	DecidedBy     *bson.ObjectID    `bson:"decidedBy,omitempty" json:"decidedBy,omitempty"`
	DecidedAt     *time.Time        `bson:"decidedAt,omitempty" json:"decidedAt,omitempty"`
	CreatedAt     time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time         `bson:"updatedAt" json:"updatedAt"`

	// Filled on read only.
	Freelancer *User    `bson:"-" json:"freelancer,omitempty"`
	Project    *Project `bson:"-" json:"project,omitempty"`
}
