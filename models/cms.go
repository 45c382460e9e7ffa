package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ContentStatus string

const (
	ContentDraft     ContentStatus = "DRAFT"
	ContentPublished ContentStatus = "PUBLISHED"
)

func (s ContentStatus) Valid() bool {
	return s == ContentDraft || s == ContentPublished
}

type PageSection struct {
	Key      string `bson:"key" json:"key"`
	Heading  string `bson:"heading,omitempty" json:"heading,omitempty"`
	Body     string `bson:"body,omitempty" json:"body,omitempty"`
	ImageURL string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Order    int    `bson:"order" json:"order"`
}

type Page struct {
	ID              bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string        `bson:"title" json:"title"`
	Slug            string        `bson:"slug" json:"slug"`
	Content         string        `bson:"content" json:"content"`
	Sections        []PageSection `bson:"sections" json:"sections"`
	MetaTitle       string        `bson:"metaTitle,omitempty" json:"metaTitle,omitempty"`
	MetaDescription string        `bson:"metaDescription,omitempty" json:"metaDescription,omitempty"`
	Status          ContentStatus `bson:"status" json:"status"`
	PublishedAt     *time.Time    `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	CreatedBy       bson.ObjectID `bson:"createdBy" json:"createdBy"`
	UpdatedBy       bson.ObjectID `bson:"updatedBy" json:"updatedBy"`
	SoftDelete      `bson:",inline"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Blog struct {
	ID            bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string        `bson:"title" json:"title"`
	Slug          string        `bson:"slug" json:"slug"`
	Excerpt       string        `bson:"excerpt,omitempty" json:"excerpt,omitempty"`
	Content       string        `bson:"content" json:"content"`
	CoverImageURL string        `bson:"coverImageUrl,omitempty" json:"coverImageUrl,omitempty"`
	CoverObject   string        `bson:"coverObject,omitempty" json:"-"`
	Tags          []string      `bson:"tags" json:"tags"`
	AuthorID      bson.ObjectID `bson:"authorId" json:"authorId"`
	AuthorName    string        `bson:"authorName" json:"authorName"`
	Status        ContentStatus `bson:"status" json:"status"`
	PublishedAt   *time.Time    `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	Views         int64         `bson:"views" json:"views"`
	SoftDelete    `bson:",inline"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}
