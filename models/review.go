package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Review struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID  bson.ObjectID `bson:"projectId" json:"projectId"`
	ReviewerID bson.ObjectID `bson:"reviewerId" json:"reviewerId"`
	RevieweeID bson.ObjectID `bson:"revieweeId" json:"revieweeId"`
	Rating     int           `bson:"rating" json:"rating"`
	Comment    string        `bson:"comment" json:"comment"`
	SoftDelete `bson:",inline"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

type RatingSummary struct {
	Average   float64       `json:"average"`
	Count     int64         `json:"count"`
	Histogram map[int]int64 `json:"histogram"`
}
