package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type VideoJobStatus string

const (
	VideoJobPending   VideoJobStatus = "PENDING"
	VideoJobRunning   VideoJobStatus = "RUNNING"
	VideoJobCompleted VideoJobStatus = "COMPLETED"
	VideoJobFailed    VideoJobStatus = "FAILED"
)

type VideoJob struct {
	ID           bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	SourceObject string         `bson:"sourceObject" json:"sourceObject"`
	TargetObject string         `bson:"targetObject" json:"targetObject"`
	OutputURL    string         `bson:"outputUrl,omitempty" json:"outputUrl,omitempty"`
	Status       VideoJobStatus `bson:"status" json:"status"`
	Error        string         `bson:"error,omitempty" json:"error,omitempty"`
	RequestedBy  bson.ObjectID  `bson:"requestedBy" json:"requestedBy"`
	StartedAt    *time.Time     `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	FinishedAt   *time.Time     `bson:"finishedAt,omitempty" json:"finishedAt,omitempty"`
	CreatedAt    time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time      `bson:"updatedAt" json:"updatedAt"`
}
