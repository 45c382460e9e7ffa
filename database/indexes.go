package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func unique(keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
}

// uniqueLive enforces uniqueness among documents that are not soft-deleted, so a deleted
// record frees its key.
func uniqueLive(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().
		SetName(name).
		SetUnique(true).
		SetPartialFilterExpression(bson.M{"isDeleted": false})}
}

func plain(keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys}
}

// expireAt drops a document once the time in field has passed.
func expireAt(field string) mongo.IndexModel {
	return mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)}
}

var indexes = map[string][]mongo.IndexModel{
	UsersCollection: {
		unique(bson.D{{Key: "email", Value: 1}}),
		plain(bson.D{{Key: "role", Value: 1}, {Key: "isDeleted", Value: 1}}),
	},
	RefreshTokensCollection: {
		unique(bson.D{{Key: "tokenHash", Value: 1}}),
		plain(bson.D{{Key: "userId", Value: 1}}),
		expireAt("expiresAt"),
	},
	PasswordResetsCollection: {
		unique(bson.D{{Key: "tokenHash", Value: 1}}),
		expireAt("expiresAt"),
	},
	InvitationsCollection: {
		unique(bson.D{{Key: "tokenHash", Value: 1}}),
		plain(bson.D{{Key: "email", Value: 1}, {Key: "status", Value: 1}}),
	},
	CategoriesCollection: {
		unique(bson.D{{Key: "slug", Value: 1}}),
	},
	TagsCollection: {
		uniqueLive("type_slug_live", bson.D{{Key: "type", Value: 1}, {Key: "slug", Value: 1}}),
	},
	ProjectsCollection: {
		plain(bson.D{{Key: "status", Value: 1}, {Key: "isDeleted", Value: 1}, {Key: "createdAt", Value: -1}}),
		plain(bson.D{{Key: "clientId", Value: 1}}),
		plain(bson.D{{Key: "freelancerId", Value: 1}}),
		plain(bson.D{{Key: "tags", Value: 1}}),
	},
	ApplicationsCollection: {
		unique(bson.D{{Key: "projectId", Value: 1}, {Key: "freelancerId", Value: 1}}),
	},
	SubmissionsCollection: {
		plain(bson.D{{Key: "projectId", Value: 1}, {Key: "createdAt", Value: -1}}),
	},
	ReviewsCollection: {
		unique(bson.D{{Key: "projectId", Value: 1}, {Key: "reviewerId", Value: 1}}),
		plain(bson.D{{Key: "revieweeId", Value: 1}}),
	},
	FavoritesCollection: {
		unique(bson.D{{Key: "userId", Value: 1}, {Key: "freelancerId", Value: 1}}),
	},
	SavedProjectsCollection: {
		unique(bson.D{{Key: "userId", Value: 1}, {Key: "projectId", Value: 1}}),
	},
	MacrosCollection: {
		uniqueLive("slug_live", bson.D{{Key: "slug", Value: 1}}),
	},
	VisitorsCollection: {
		plain(bson.D{{Key: "createdAt", Value: -1}}),
		plain(bson.D{{Key: "sessionId", Value: 1}}),
	},
	PagesCollection: {
		uniqueLive("slug_live", bson.D{{Key: "slug", Value: 1}}),
	},
	BlogsCollection: {
		uniqueLive("slug_live", bson.D{{Key: "slug", Value: 1}}),
		plain(bson.D{{Key: "status", Value: 1}, {Key: "publishedAt", Value: -1}}),
	},
	VideoJobsCollection: {
		plain(bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}),
	},
}

// EnsureIndexes creates the unique constraints the services rely on for conflict detection.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	for name, models := range indexes {
		if _, err := d.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
