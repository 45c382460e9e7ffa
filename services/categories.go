package services

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/database"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/storage"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

type CategoryService struct {
	categories *mongo.Collection
	projects   *mongo.Collection
	bucket     storage.Bucket
	logger     *zap.Logger
}

func NewCategoryService(db *database.DB, bucket storage.Bucket, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		categories: db.Collection(database.CategoriesCollection),
		projects:   db.Collection(database.ProjectsCollection),
		bucket:     bucket,
		logger:     logger,
	}
}

// Upload is an already validated multipart file.
type Upload struct {
	File        *multipart.FileHeader
	ContentType string
}

func (s *CategoryService) Create(ctx context.Context, in dto.CreateCategoryDTO, image *Upload) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = utils.GenerateSlug(name)
	}
	if name == "" || slug == "" {
		return nil, invalid("name cannot be empty")
	}

	now := time.Now().UTC()
	doc := models.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var uploaded *storage.UploadedObject
	if image != nil {
		obj, err := storage.UploadFile(ctx, s.bucket, "categories", image.File, image.ContentType)
		if err != nil {
			return nil, err
		}
		uploaded = obj
		doc.ImageUrl = obj.URL
	}

	res, err := s.categories.InsertOne(ctx, doc)
	if err != nil {
		if uploaded != nil {
			_ = storage.DeleteObjects(ctx, s.bucket, []string{uploaded.ObjectName})
		}
		if utils.IsDuplicateKey(err) {
			return nil, conflict("slug already exists")
		}
		return nil, err
	}
	doc.Id = res.InsertedID.(bson.ObjectID)
	return &doc, nil
}

func (s *CategoryService) List(ctx context.Context, q string, activeOnly bool, p utils.Pagination) ([]models.Category, int64, error) {
	filter := bson.M{}
	if q = strings.TrimSpace(q); q != "" {
		filter["name"] = bson.M{"$regex": regexQuote(q), "$options": "i"}
	}
	if activeOnly {
		filter["isActive"] = true
	}
	return findPage[models.Category](ctx, s.categories, filter, bson.D{{Key: "name", Value: 1}}, p)
}

func (s *CategoryService) Get(ctx context.Context, id bson.ObjectID) (*models.Category, error) {
	return findOne[models.Category](ctx, s.categories, bson.M{"_id": id}, "category")
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return findOne[models.Category](ctx, s.categories, bson.M{"slug": strings.TrimSpace(slug)}, "category")
}

func (s *CategoryService) Update(ctx context.Context, id bson.ObjectID, in dto.UpdateCategoryDTO, image *Upload) (*models.Category, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return nil, invalid("name cannot be empty")
		}
		set["name"] = v
	}
	if in.Slug != nil {
		v := utils.GenerateSlug(*in.Slug)
		if v == "" {
			return nil, invalid("slug cannot be empty")
		}
		set["slug"] = v
	}
	if in.Description != nil {
		set["description"] = strings.TrimSpace(*in.Description)
	}
	if in.IsActive != nil {
		set["isActive"] = *in.IsActive
	}

	var uploaded *storage.UploadedObject
	if image != nil {
		obj, err := storage.UploadFile(ctx, s.bucket, "categories", image.File, image.ContentType)
		if err != nil {
			return nil, err
		}
		uploaded = obj
		set["imageUrl"] = obj.URL
	}

	if len(set) == 0 {
		return nil, invalid("no updates provided")
	}
	set["updatedAt"] = time.Now().UTC()

	out, err := updateAndReturn[models.Category](ctx, s.categories, bson.M{"_id": id}, bson.M{"$set": set}, "category")
	if err != nil {
		if uploaded != nil {
			_ = storage.DeleteObjects(ctx, s.bucket, []string{uploaded.ObjectName})
		}
		if utils.IsDuplicateKey(err) {
			return nil, conflict("slug already exists")
		}
		return nil, err
	}

	if uploaded != nil && current.ImageUrl != "" {
		if err := storage.DeleteURLs(ctx, s.bucket, []string{current.ImageUrl}); err != nil {
			s.logger.Warn("old category image not deleted", zap.Error(err))
		}
	}
	return out, nil
}

// Delete removes the category; categories still used by live projects are kept.
func (s *CategoryService) Delete(ctx context.Context, id bson.ObjectID) error {
	inUse, err := s.projects.CountDocuments(ctx, notDeleted(bson.M{"categoryId": id}))
	if err != nil {
		return err
	}
	if inUse > 0 {
		return conflict("category is used by %d projects", inUse)
	}

	var cat models.Category
	if err := s.categories.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&cat); err != nil {
		return wrapNoDocuments(err, "category")
	}
	if cat.ImageUrl != "" {
		if err := storage.DeleteURLs(ctx, s.bucket, []string{cat.ImageUrl}); err != nil {
			s.logger.Warn("category image not deleted", zap.Error(err))
		}
	}
	return nil
}
