package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Macro struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string        `bson:"name" json:"name"`
	Slug       string        `bson:"slug" json:"slug"`
	Category   string        `bson:"category,omitempty" json:"category,omitempty"`
	Subject    string        `bson:"subject,omitempty" json:"subject,omitempty"`
	Body       string        `bson:"body" json:"body"`
	Variables  []string      `bson:"variables" json:"variables"`
	IsActive   bool          `bson:"isActive" json:"isActive"`
	CreatedBy  bson.ObjectID `bson:"createdBy" json:"createdBy"`
	UpdatedBy  bson.ObjectID `bson:"updatedBy" json:"updatedBy"`
	SoftDelete `bson:",inline"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}
