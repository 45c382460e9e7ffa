package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/database"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/storage"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// VideoEncoder streams src through an encoder into dst; dst must not exist after a failure.
type VideoEncoder interface {
	Compress(ctx context.Context, src, dst string) error
}

// MediaService uploads admin files and runs video compression jobs in the background, at most
// maxConcurrent at a time.
type MediaService struct {
	jobs    *mongo.Collection
	bucket  storage.Bucket
	encoder VideoEncoder
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *zap.Logger

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

func NewMediaService(db *database.DB, bucket storage.Bucket, encoder VideoEncoder, maxConcurrent int, timeout time.Duration, logger *zap.Logger) *MediaService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	ctx, stop := context.WithCancel(context.Background())
	return &MediaService{
		jobs:    db.Collection(database.VideoJobsCollection),
		bucket:  bucket,
		encoder: encoder,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		timeout: timeout,
		logger:  logger,
		baseCtx: ctx,
		stop:    stop,
	}
}

type UploadResult struct {
	Object *storage.UploadedObject `json:"object"`
	Job    *models.VideoJob        `json:"job,omitempty"`
}

// Upload stores the file; videos additionally get a compression job.
func (s *MediaService) Upload(ctx context.Context, actor bson.ObjectID, up Upload) (*UploadResult, error) {
	video := utils.IsVideo(up.File.Filename, up.ContentType)
	prefix := "uploads"
	if video {
		prefix = "videos/original"
	}
	obj, err := storage.UploadFile(ctx, s.bucket, prefix, up.File, up.ContentType)
	if err != nil {
		return nil, err
	}
	out := &UploadResult{Object: obj}
	if !video {
		return out, nil
	}
	job, err := s.enqueue(ctx, actor, obj.ObjectName)
	if err != nil {
		return nil, err
	}
	out.Job = job
	return out, nil
}

// RequestCompression queues a job for an object already in the bucket.
func (s *MediaService) RequestCompression(ctx context.Context, actor bson.ObjectID, source string) (*models.VideoJob, error) {
	source = strings.TrimSpace(source)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		name, err := s.bucket.ObjectName(source)
		if err != nil {
			return nil, invalid("url does not belong to the media bucket")
		}
		source = name
	}
	r, err := s.bucket.NewReader(ctx, source)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, notFound("source object")
		}
		return nil, err
	}
	_ = r.Close()
	return s.enqueue(ctx, actor, source)
}

func (s *MediaService) enqueue(ctx context.Context, actor bson.ObjectID, source string) (*models.VideoJob, error) {
	now := time.Now().UTC()
	job := models.VideoJob{
		SourceObject: source,
		TargetObject: storage.NewObjectName("videos/compressed", ".mp4"),
		Status:       models.VideoJobPending,
		RequestedBy:  actor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	res, err := s.jobs.InsertOne(ctx, job)
	if err != nil {
		return nil, err
	}
	job.ID = res.InsertedID.(bson.ObjectID)
	s.start(job)
	return &job, nil
}

func (s *MediaService) start(job models.VideoJob) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(job)
	}()
}

func (s *MediaService) run(job models.VideoJob) {
	log := s.logger.With(zap.String("job_id", job.ID.Hex()), zap.String("source", job.SourceObject))

	if err := s.sem.Acquire(s.baseCtx, 1); err != nil {
		// shutting down; the job stays PENDING and is resumed on next start
		return
	}
	defer s.sem.Release(1)

	now := time.Now().UTC()
	res, err := s.jobs.UpdateOne(s.baseCtx,
		bson.M{"_id": job.ID, "status": models.VideoJobPending},
		bson.M{"$set": bson.M{"status": models.VideoJobRunning, "startedAt": now, "updatedAt": now}})
	if err != nil {
		log.Error("video job not started", zap.Error(err))
		return
	}
	if res.ModifiedCount == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
	defer cancel()
	encodeErr := s.encoder.Compress(ctx, job.SourceObject, job.TargetObject)

	finished := time.Now().UTC()
	set := bson.M{"finishedAt": finished, "updatedAt": finished}
	if encodeErr != nil {
		if s.baseCtx.Err() != nil {
			// interrupted by shutdown: requeue
			set = bson.M{"status": models.VideoJobPending, "updatedAt": finished}
			log.Warn("video job interrupted")
		} else {
			set["status"] = models.VideoJobFailed
			set["error"] = encodeErr.Error()
			log.Error("video job failed", zap.Error(encodeErr))
		}
	} else {
		set["status"] = models.VideoJobCompleted
		set["outputUrl"] = s.bucket.PublicURL(job.TargetObject)
		log.Info("video job completed", zap.Duration("took", finished.Sub(now)))
	}

	// the job outcome must be recorded even while shutting down
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer saveCancel()
	if _, err := s.jobs.UpdateByID(saveCtx, job.ID, bson.M{"$set": set}); err != nil {
		log.Error("video job result not saved", zap.Error(err))
	}
}

// Resume requeues jobs left PENDING or RUNNING by a previous process.
func (s *MediaService) Resume(ctx context.Context) (int, error) {
	if _, err := s.jobs.UpdateMany(ctx,
		bson.M{"status": models.VideoJobRunning},
		bson.M{"$set": bson.M{"status": models.VideoJobPending, "updatedAt": time.Now().UTC()}}); err != nil {
		return 0, fmt.Errorf("reset running jobs: %w", err)
	}
	cursor, err := s.jobs.Find(ctx, bson.M{"status": models.VideoJobPending})
	if err != nil {
		return 0, err
	}
	var pending []models.VideoJob
	if err := cursor.All(ctx, &pending); err != nil {
		return 0, err
	}
	for _, job := range pending {
		s.start(job)
	}
	return len(pending), nil
}

// Shutdown stops accepting work, cancels running encodes and waits for the workers.
func (s *MediaService) Shutdown(ctx context.Context) error {
	s.stop()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MediaService) GetJob(ctx context.Context, id bson.ObjectID) (*models.VideoJob, error) {
	return findOne[models.VideoJob](ctx, s.jobs, bson.M{"_id": id}, "video job")
}

func (s *MediaService) ListJobs(ctx context.Context, status string, p utils.Pagination) ([]models.VideoJob, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return findPage[models.VideoJob](ctx, s.jobs, filter, bson.D{{Key: "createdAt", Value: -1}}, p)
}

func (s *MediaService) DeleteObject(ctx context.Context, objectName string) error {
	if err := s.bucket.Delete(ctx, objectName); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return notFound("object")
		}
		return err
	}
	return nil
}
