package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// SoftDelete is inlined into every document that is never physically removed.
type SoftDelete struct {
	IsDeleted bool           `bson:"isDeleted" json:"isDeleted"`
	DeletedAt *time.Time     `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	DeletedBy *bson.ObjectID `bson:"deletedBy,omitempty" json:"deletedBy,omitempty"`
}

type Attachment struct {
	URL        string    `bson:"url" json:"url"`
	ObjectName string    `bson:"objectName" json:"objectName"`
	MimeType   string    `bson:"mimeType" json:"mimeType"`
	SizeBytes  int64     `bson:"sizeBytes" json:"sizeBytes"`
	FileName   string    `bson:"fileName" json:"fileName"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}
