package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type TagType string

const (
	TagTypeSkill   TagType = "SKILL"
	TagTypeProject TagType = "PROJECT"
	TagTypeBlog    TagType = "BLOG"
)

func (t TagType) Valid() bool {
	return t == TagTypeSkill || t == TagTypeProject || t == TagTypeBlog
}

type Tag struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string        `bson:"name" json:"name"`
	Slug       string        `bson:"slug" json:"slug"`
	Type       TagType       `bson:"type" json:"type"`
	UsageCount int64         `bson:"usageCount" json:"usageCount"`
	SoftDelete `bson:",inline"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}
