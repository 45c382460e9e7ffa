package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ProjectStatus string

const (
	ProjectStatusOpen        ProjectStatus = "OPEN"
	ProjectStatusInProgress  ProjectStatus = "IN_PROGRESS"
	ProjectStatusSubmitted   ProjectStatus = "SUBMITTED"
	ProjectStatusUnderReview ProjectStatus = "UNDER_REVIEW"
	ProjectStatusCompleted   ProjectStatus = "COMPLETED"
	ProjectStatusCancelled   ProjectStatus = "CANCELLED"
)

type ProjectType string

const (
	ProjectTypeFixed  ProjectType = "FIXED"
	ProjectTypeHourly ProjectType = "HOURLY"
)

var projectTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectStatusOpen:        {ProjectStatusInProgress, ProjectStatusCancelled},
	ProjectStatusInProgress:  {ProjectStatusSubmitted, ProjectStatusCancelled},
	ProjectStatusSubmitted:   {ProjectStatusUnderReview, ProjectStatusCompleted, ProjectStatusInProgress},
	ProjectStatusUnderReview: {ProjectStatusCompleted, ProjectStatusInProgress},
}

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusOpen, ProjectStatusInProgress, ProjectStatusSubmitted,
		ProjectStatusUnderReview, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	for _, allowed := range projectTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Project struct {
	ID                bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title             string         `bson:"title" json:"title"`
	Slug              string         `bson:"slug" json:"slug"`
	Description       string         `bson:"description" json:"description"`
	ClientID          bson.ObjectID  `bson:"clientId" json:"clientId"`
	FreelancerID      *bson.ObjectID `bson:"freelancerId,omitempty" json:"freelancerId,omitempty"`
	CategoryID        *bson.ObjectID `bson:"categoryId,omitempty" json:"categoryId,omitempty"`
	Type              ProjectType    `bson:"type" json:"type"`
	BudgetMin         string         `bson:"budgetMin" json:"budgetMin"`
	BudgetMax         string         `bson:"budgetMax" json:"budgetMax"`
	BudgetMinValue    float64        `bson:"budgetMinValue" json:"-"` // query copies of the decimal strings
	BudgetMaxValue    float64        `bson:"budgetMaxValue" json:"-"`
	Currency          string         `bson:"currency" json:"currency"`
	Deadline          *time.Time     `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Skills            []string       `bson:"skills" json:"skills"`
	Tags              []string       `bson:"tags" json:"tags"`
	Attachments       []Attachment   `bson:"attachments" json:"attachments"`
	VideoURL          string         `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	Status            ProjectStatus  `bson:"status" json:"status"`
	IsFeatured        bool           `bson:"isFeatured" json:"isFeatured"`
	ApplicationsCount int64          `bson:"applicationsCount" json:"applicationsCount"`
	HiredAt           *time.Time     `bson:"hiredAt,omitempty" json:"hiredAt,omitempty"`
	CompletedAt       *time.Time     `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	SoftDelete        `bson:",inline"`
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsParticipant is true for the owning client and the hired freelancer.
func (p *Project) IsParticipant(userID bson.ObjectID) bool {
	if p.ClientID == userID {
		return true
	}
	return p.FreelancerID != nil && *p.FreelancerID == userID
}
