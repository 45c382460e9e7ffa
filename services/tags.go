package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/database"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

type TagService struct {
	tags   *mongo.Collection
	logger *zap.Logger
}

func NewTagService(db *database.DB, logger *zap.Logger) *TagService {
	return &TagService{
		tags:   db.Collection(database.TagsCollection),
		logger: logger,
	}
}

func (s *TagService) Create(ctx context.Context, in dto.CreateTagDTO) (*models.Tag, error) {
	labels := utils.NormalizeLabels([]string{in.Name})
	if len(labels) == 0 {
		return nil, invalid("name cannot be empty")
	}
	typ := models.TagType(in.Type)
	if !typ.Valid() {
		return nil, invalid("unknown tag type %q", in.Type)
	}

	now := time.Now().UTC()
	tag := models.Tag{
		Name:      labels[0],
		Slug:      utils.GenerateSlug(labels[0]),
		Type:      typ,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if tag.Slug == "" {
		return nil, invalid("name must contain letters or digits")
	}

	res, err := s.tags.InsertOne(ctx, tag)
	if err != nil {
		if utils.IsDuplicateKey(err) {
			return nil, conflict("tag %q already exists", tag.Name)
		}
		return nil, err
	}
	tag.ID = res.InsertedID.(bson.ObjectID)
	return &tag, nil
}

func (s *TagService) List(ctx context.Context, typ, q string, p utils.Pagination) ([]models.Tag, int64, error) {
	filter := notDeleted(bson.M{})
	if typ != "" {
		if !models.TagType(typ).Valid() {
			return nil, 0, invalid("unknown tag type %q", typ)
		}
		filter["type"] = typ
	}
	if q = strings.TrimSpace(q); q != "" {
		filter["name"] = bson.M{"$regex": regexQuote(q), "$options": "i"}
	}
	return findPage[models.Tag](ctx, s.tags, filter,
		bson.D{{Key: "usageCount", Value: -1}, {Key: "name", Value: 1}}, p)
}

func (s *TagService) Get(ctx context.Context, id bson.ObjectID) (*models.Tag, error) {
	return findOne[models.Tag](ctx, s.tags, notDeleted(bson.M{"_id": id}), "tag")
}

func (s *TagService) Update(ctx context.Context, id bson.ObjectID, in dto.UpdateTagDTO) (*models.Tag, error) {
	set := bson.M{}
	if in.Name != nil {
		labels := utils.NormalizeLabels([]string{*in.Name})
		if len(labels) == 0 {
			return nil, invalid("name cannot be empty")
		}
		set["name"] = labels[0]
		set["slug"] = utils.GenerateSlug(labels[0])
	}
	if len(set) == 0 {
		return nil, invalid("no updates provided")
	}
	set["updatedAt"] = time.Now().UTC()

	var out models.Tag
	err := s.tags.FindOneAndUpdate(ctx, notDeleted(bson.M{"_id": id}), bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		if utils.IsDuplicateKey(err) {
			return nil, conflict("tag already exists")
		}
		return nil, wrapNoDocuments(err, "tag")
	}
	return &out, nil
}

func (s *TagService) Delete(ctx context.Context, id, actor bson.ObjectID) error {
	return softDelete(ctx, s.tags, id, actor, "tag")
}

// Track records that an entity's labels changed from before to after: new labels are upserted
// as tags of typ and counted, dropped labels are uncounted.
func (s *TagService) Track(ctx context.Context, typ models.TagType, before, after []string) error {
	if s == nil {
		return nil
	}
	added, removed := tagDelta(before, after)
	if len(added) == 0 && len(removed) == 0 {
		return nil
	}

	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(added)+len(removed))
	for _, name := range added {
		slug := utils.GenerateSlug(name)
		if slug == "" {
			continue
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"type": typ, "slug": slug, "isDeleted": false}).
			SetUpdate(bson.M{
				"$setOnInsert": bson.M{"name": name, "createdAt": now},
				"$set":         bson.M{"updatedAt": now},
				"$inc":         bson.M{"usageCount": 1},
			}).
			SetUpsert(true))
	}
	for _, name := range removed {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"type": typ, "slug": utils.GenerateSlug(name), "isDeleted": false, "usageCount": bson.M{"$gt": 0}}).
			SetUpdate(bson.M{"$inc": bson.M{"usageCount": -1}, "$set": bson.M{"updatedAt": now}}))
	}
	if len(writes) == 0 {
		return nil
	}

	if _, err := s.tags.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("track %s tags: %w", typ, err)
	}
	return nil
}

// tagDelta compares two normalized label sets.
func tagDelta(before, after []string) (added, removed []string) {
	prev := make(map[string]struct{}, len(before))
	for _, t := range before {
		prev[t] = struct{}{}
	}
	next := make(map[string]struct{}, len(after))
	for _, t := range after {
		next[t] = struct{}{}
		if _, ok := prev[t]; !ok {
			added = append(added, t)
		}
	}
	for _, t := range before {
		if _, ok := next[t]; !ok {
			removed = append(removed, t)
		}
	}
	return added, removed
}
