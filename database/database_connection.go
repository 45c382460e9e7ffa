package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

const (
	UsersCollection          = "users"
	RefreshTokensCollection  = "refresh_tokens"
	PasswordResetsCollection = "password_resets"
	InvitationsCollection    = "invitations"
	CategoriesCollection     = "categories"
	TagsCollection           = "tags"
	ProjectsCollection       = "projects"
	ApplicationsCollection   = "applications"
	SubmissionsCollection    = "submissions"
	ReviewsCollection        = "reviews"
	FavoritesCollection      = "favorites"
	SavedProjectsCollection  = "saved_projects"
	MacrosCollection         = "macros"
	VisitorsCollection       = "visitors"
	PagesCollection          = "cms_pages"
	BlogsCollection          = "blogs"
	VideoJobsCollection      = "video_jobs"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Connect opens one client for the whole process and pings the primary.
func Connect(ctx context.Context, uri, databaseName string, logger *zap.Logger) (*DB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to mongodb", zap.String("database", databaseName))

	return &DB{Client: client, Database: client.Database(databaseName)}, nil
}

func (d *DB) Collection(name string) *mongo.Collection {
	return d.Database.Collection(name)
}

func (d *DB) Disconnect(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}
