package services

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/storage"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// notDeleted is merged into every list/get filter over soft-deletable collections.
func notDeleted(filter bson.M) bson.M {
	filter["isDeleted"] = bson.M{"$ne": true}
	return filter
}

func softDeleteUpdate(actor bson.ObjectID, now time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"isDeleted": true,
		"deletedAt": now,
		"deletedBy": actor,
		"updatedAt": now,
	}}
}

// softDelete marks one live document deleted; it reports ErrNotFound when nothing matched.
func softDelete(ctx context.Context, col *mongo.Collection, id, actor bson.ObjectID, what string) error {
	res, err := col.UpdateOne(ctx,
		bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
		softDeleteUpdate(actor, time.Now().UTC()))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notFound(what)
	}
	return nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.M, what string) (*T, error) {
	var out T
	if err := col.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(what)
		}
		return nil, err
	}
	return &out, nil
}

// findPage runs the page query and the total count with the same filter.
func findPage[T any](ctx context.Context, col *mongo.Collection, filter bson.M, sort bson.D, p utils.Pagination) ([]T, int64, error) {
	opts := options.Find().
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit)).
		SetSort(sort)

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	items := make([]T, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, err
	}

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// updateAndReturn applies update to the one live document matching filter and decodes the result.
func updateAndReturn[T any](ctx context.Context, col *mongo.Collection, filter, update bson.M, what string) (*T, error) {
	var out T
	err := col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		return nil, wrapNoDocuments(err, what)
	}
	return &out, nil
}

func wrapNoDocuments(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound(what)
	}
	return err
}

type keyCount[K any] struct {
	Key   K     `bson:"_id"`
	Count int64 `bson:"count"`
}

// countBy groups the documents matching match by field (a "$path") and counts them.
func countBy[K comparable](ctx context.Context, col *mongo.Collection, match bson.M, field string) (map[K]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []keyCount[K]
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[K]int64, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Count
	}
	return out, nil
}

// regexQuote makes user search input safe to embed in a $regex.
func regexQuote(q string) string {
	return regexp.QuoteMeta(q)
}

func toAttachment(o *storage.UploadedObject) models.Attachment {
	return models.Attachment{
		URL:        o.URL,
		ObjectName: o.ObjectName,
		MimeType:   o.MimeType,
		SizeBytes:  o.SizeBytes,
		FileName:   o.FileName,
		UploadedAt: o.UploadedAt,
	}
}

// htmlPolicy is shared by every service that stores user-authored HTML.
var htmlPolicy = bluemonday.UGCPolicy()

func sanitizeHTML(s string) string {
	return htmlPolicy.Sanitize(s)
}

func ptr[T any](v T) *T { return &v }

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   bson.ObjectID
	Role models.Role
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// uploadAll stores every file under prefix; on failure the already stored ones are removed.
func uploadAll(ctx context.Context, b storage.Bucket, prefix string, files []Upload) ([]models.Attachment, []string, error) {
	out := make([]models.Attachment, 0, len(files))
	names := make([]string, 0, len(files))
	for _, f := range files {
		obj, err := storage.UploadFile(ctx, b, prefix, f.File, f.ContentType)
		if err != nil {
			_ = storage.DeleteObjects(ctx, b, names)
			return nil, nil, err
		}
		out = append(out, toAttachment(obj))
		names = append(names, obj.ObjectName)
	}
	return out, names, nil
}
