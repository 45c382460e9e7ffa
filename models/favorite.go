package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Favorite struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       bson.ObjectID `bson:"userId" json:"userId"`
	FreelancerID bson.ObjectID `bson:"freelancerId" json:"freelancerId"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`

	Freelancer *User `bson:"freelancer,omitempty" json:"freelancer,omitempty"`
}

type SavedProject struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    bson.ObjectID `bson:"userId" json:"userId"`
	ProjectID bson.ObjectID `bson:"projectId" json:"projectId"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`

	Project *Project `bson:"project,omitempty" json:"project,omitempty"`
}
