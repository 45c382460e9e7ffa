package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/database"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

type ReviewService struct {
	reviews  *mongo.Collection
	projects *ProjectService
	logger   *zap.Logger
}

func NewReviewService(db *database.DB, projects *ProjectService, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		reviews:  db.Collection(database.ReviewsCollection),
		projects: projects,
		logger:   logger,
	}
}

// counterpart returns who the actor reviews on project p.
func counterpart(p *models.Project, actor bson.ObjectID) (bson.ObjectID, error) {
	if p.FreelancerID == nil {
		return bson.ObjectID{}, invalid("project has no hired freelancer")
	}
	switch actor {
	case p.ClientID:
		return *p.FreelancerID, nil
	case *p.FreelancerID:
		return p.ClientID, nil
	}
	return bson.ObjectID{}, forbidden("only project participants can leave a review")
}

func (s *ReviewService) Create(ctx context.Context, projectID bson.ObjectID, actor Actor, in dto.CreateReviewDTO) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	reviewee, err := counterpart(project, actor.ID)
	if err != nil {
		return nil, err
	}
	if project.Status != models.ProjectStatusCompleted {
		return nil, badTransition("reviews open once the project is COMPLETED")
	}

	now := time.Now().UTC()
	r := models.Review{
		ProjectID:  projectID,
		ReviewerID: actor.ID,
		RevieweeID: reviewee,
		Rating:     in.Rating,
		Comment:    strings.TrimSpace(in.Comment),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	res, err := s.reviews.InsertOne(ctx, r)
	if err != nil {
		if utils.IsDuplicateKey(err) {
			return nil, conflict("you already reviewed this project")
		}
		return nil, err
	}
	r.ID = res.InsertedID.(bson.ObjectID)
	return &r, nil
}

func (s *ReviewService) ListForUser(ctx context.Context, userID bson.ObjectID, p utils.Pagination) ([]models.Review, int64, error) {
	return findPage[models.Review](ctx, s.reviews, notDeleted(bson.M{"revieweeId": userID}),
		bson.D{{Key: "createdAt", Value: -1}}, p)
}

func (s *ReviewService) ListForProject(ctx context.Context, projectID bson.ObjectID, p utils.Pagination) ([]models.Review, int64, error) {
	return findPage[models.Review](ctx, s.reviews, notDeleted(bson.M{"projectId": projectID}),
		bson.D{{Key: "createdAt", Value: -1}}, p)
}

func (s *ReviewService) ListAll(ctx context.Context, includeDeleted bool, minRating, maxRating int, p utils.Pagination) ([]models.Review, int64, error) {
	filter := bson.M{}
	if !includeDeleted {
		notDeleted(filter)
	}
	rating := bson.M{}
	if minRating > 0 {
		rating["$gte"] = minRating
	}
	if maxRating > 0 {
		rating["$lte"] = maxRating
	}
	if len(rating) > 0 {
		filter["rating"] = rating
	}
	return findPage[models.Review](ctx, s.reviews, filter, bson.D{{Key: "createdAt", Value: -1}}, p)
}

func (s *ReviewService) Delete(ctx context.Context, id, actor bson.ObjectID) error {
	return softDelete(ctx, s.reviews, id, actor, "review")
}

type ratingBucket struct {
	Rating int   `bson:"_id"`
	Count  int64 `bson:"count"`
}

// summarize folds the per-rating counts into a summary; the average is rounded to 2 places.
func summarize(buckets []ratingBucket) models.RatingSummary {
	out := models.RatingSummary{Histogram: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	var sum int64
	for _, b := range buckets {
		out.Histogram[b.Rating] += b.Count
		out.Count += b.Count
		sum += int64(b.Rating) * b.Count
	}
	if out.Count > 0 {
		out.Average = math.Round(float64(sum)/float64(out.Count)*100) / 100
	}
	return out
}

func (s *ReviewService) Summary(ctx context.Context, userID bson.ObjectID) (models.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: notDeleted(bson.M{"revieweeId": userID})}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$rating"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := s.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return models.RatingSummary{}, err
	}
	defer cursor.Close(ctx)

	var buckets []ratingBucket
	if err := cursor.All(ctx, &buckets); err != nil {
		return models.RatingSummary{}, err
	}
	return summarize(buckets), nil
}

func (s *ReviewService) Count(ctx context.Context) (int64, error) {
	return s.reviews.CountDocuments(ctx, notDeleted(bson.M{}))
}
