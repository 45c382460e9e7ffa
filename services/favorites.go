package services

import (
	"context"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/database"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// BookmarkService keeps client favorites (freelancers) and freelancer saved projects. Both are
// idempotent (owner, target) pairs listed with the target joined in.
type BookmarkService struct {
	favorites *mongo.Collection
	saved     *mongo.Collection
	users     *UserService
	projects  *ProjectService
}

func NewBookmarkService(db *database.DB, users *UserService, projects *ProjectService) *BookmarkService {
	return &BookmarkService{
		favorites: db.Collection(database.FavoritesCollection),
		saved:     db.Collection(database.SavedProjectsCollection),
		users:     users,
		projects:  projects,
	}
}

// addPair upserts (userId, key=target); repeated adds leave the original createdAt.
func addPair(ctx context.Context, col *mongo.Collection, userID bson.ObjectID, key string, target bson.ObjectID) error {
	_, err := col.UpdateOne(ctx,
		bson.M{"userId": userID, key: target},
		bson.M{"$setOnInsert": bson.M{"createdAt": time.Now().UTC()}},
		options.UpdateOne().SetUpsert(true))
	if err != nil && utils.IsDuplicateKey(err) {
		// lost an upsert race with an identical add
		return nil
	}
	return err
}

func removePair(ctx context.Context, col *mongo.Collection, userID bson.ObjectID, key string, target bson.ObjectID, what string) error {
	res, err := col.DeleteOne(ctx, bson.M{"userId": userID, key: target})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return notFound(what)
	}
	return nil
}

// joinedPage pages the owner's pairs and $lookups the target into as (a single document).
func joinedPage[T any](ctx context.Context, col *mongo.Collection, userID bson.ObjectID, localField, from, as string, p utils.Pagination) ([]T, int64, error) {
	match := bson.M{"userId": userID}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$skip", Value: p.Skip()}},
		{{Key: "$limit", Value: int64(p.Limit)}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "localField", Value: localField},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: as},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + as},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{{Key: as + ".passwordHash", Value: 0}, {Key: as + ".totpSecret", Value: 0}}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	items := make([]T, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	total, err := col.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *BookmarkService) AddFavorite(ctx context.Context, actor Actor, freelancerID bson.ObjectID) error {
	if actor.Role != models.RoleClient {
		return forbidden("only clients can favorite freelancers")
	}
	if _, err := s.users.GetFreelancer(ctx, freelancerID); err != nil {
		return err
	}
	return addPair(ctx, s.favorites, actor.ID, "freelancerId", freelancerID)
}

func (s *BookmarkService) RemoveFavorite(ctx context.Context, actor Actor, freelancerID bson.ObjectID) error {
	return removePair(ctx, s.favorites, actor.ID, "freelancerId", freelancerID, "favorite")
}

func (s *BookmarkService) ListFavorites(ctx context.Context, actor Actor, p utils.Pagination) ([]models.Favorite, int64, error) {
	return joinedPage[models.Favorite](ctx, s.favorites, actor.ID, "freelancerId", database.UsersCollection, "freelancer", p)
}

func (s *BookmarkService) SaveProject(ctx context.Context, actor Actor, projectID bson.ObjectID) error {
	if actor.Role != models.RoleFreelancer {
		return forbidden("only freelancers can save projects")
	}
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return err
	}
	return addPair(ctx, s.saved, actor.ID, "projectId", projectID)
}

func (s *BookmarkService) UnsaveProject(ctx context.Context, actor Actor, projectID bson.ObjectID) error {
	return removePair(ctx, s.saved, actor.ID, "projectId", projectID, "saved project")
}

func (s *BookmarkService) ListSaved(ctx context.Context, actor Actor, p utils.Pagination) ([]models.SavedProject, int64, error) {
	return joinedPage[models.SavedProject](ctx, s.saved, actor.ID, "projectId", database.ProjectsCollection, "project", p)
}
