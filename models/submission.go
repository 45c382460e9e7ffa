package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type SubmissionStatus string

const (
	SubmissionSubmitted   SubmissionStatus = "SUBMITTED"
	SubmissionUnderReview SubmissionStatus = "UNDER_REVIEW"
	SubmissionApproved    SubmissionStatus = "APPROVED"
	SubmissionRejected    SubmissionStatus = "REJECTED"
)

// SubmissionStep describes one workflow move: which submission statuses it may start from, where
// it lands, and what the project becomes.
type SubmissionStep struct {
	From          []SubmissionStatus
	To            SubmissionStatus
	ProjectFrom   []ProjectStatus
	ProjectStatus ProjectStatus
}

var (
	StepStartReview = SubmissionStep{
		From:          []SubmissionStatus{SubmissionSubmitted},
		To:            SubmissionUnderReview,
		ProjectFrom:   []ProjectStatus{ProjectStatusSubmitted},
		ProjectStatus: ProjectStatusUnderReview,
	}
	StepApprove = SubmissionStep{
		From:          []SubmissionStatus{SubmissionSubmitted, SubmissionUnderReview},
		To:            SubmissionApproved,
		ProjectFrom:   []ProjectStatus{ProjectStatusSubmitted, ProjectStatusUnderReview},
		ProjectStatus: ProjectStatusCompleted,
	}
	StepReject = SubmissionStep{
		From:          []SubmissionStatus{SubmissionSubmitted, SubmissionUnderReview},
		To:            SubmissionRejected,
		ProjectFrom:   []ProjectStatus{ProjectStatusSubmitted, ProjectStatusUnderReview},
		ProjectStatus: ProjectStatusInProgress,
	}
)

func (s SubmissionStep) Allows(current SubmissionStatus) bool {
	for _, from := range s.From {
		if from == current {
			return true
		}
	}
	return false
}

// ActiveSubmissionStatuses are the statuses of a submission still waiting on a decision.
var ActiveSubmissionStatuses = []SubmissionStatus{SubmissionSubmitted, SubmissionUnderReview}

type Submission struct {
	ID           bson.ObjectID    `bson:"_id,omitempty" json:"id"`
	ProjectID    bson.ObjectID    `bson:"projectId" json:"projectId"`
	FreelancerID bson.ObjectID    `bson:"freelancerId" json:"freelancerId"`
	Message      string           `bson:"message" json:"message"`
	Links        []string         `bson:"links" json:"links"`
	Attachments  []Attachment     `bson:"attachments" json:"attachments"`
	Status       SubmissionStatus `bson:"status" json:"status"`
	ReviewerID   *bson.ObjectID   `bson:"reviewerId,omitempty" json:"reviewerId,omitempty"`
	ReviewNote   string           `bson:"reviewNote,omitempty" json:"reviewNote,omitempty"`
	ReviewedAt   *time.Time       `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	CreatedAt    time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time        `bson:"updatedAt" json:"updatedAt"`
}
