package services

import (
	"context"
	"errors"
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

// SubmissionService runs the delivery and approval workflow of hired projects.
type SubmissionService struct {
	submissions *mongo.Collection
	projects    *ProjectService
	bucket      storage.Bucket
	logger      *zap.Logger
}

func NewSubmissionService(db *database.DB, projects *ProjectService, bucket storage.Bucket, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{
		submissions: db.Collection(database.SubmissionsCollection),
		projects:    projects,
		bucket:      bucket,
		logger:      logger,
	}
}

func (s *SubmissionService) Submit(ctx context.Context, projectID bson.ObjectID, actor Actor, in dto.CreateSubmissionDTO, files []Upload) (*models.Submission, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.FreelancerID == nil || *project.FreelancerID != actor.ID {
		return nil, forbidden("only the hired freelancer can submit work")
	}
	if project.Status != models.ProjectStatusInProgress {
		return nil, badTransition("project is %s, work can only be submitted while IN_PROGRESS", project.Status)
	}
	active, err := s.submissions.CountDocuments(ctx, bson.M{
		"projectId": projectID,
		"status":    bson.M{"$in": models.ActiveSubmissionStatuses},
	})
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, conflict("a submission is already awaiting review")
	}

	// claim the project before storing anything
	if _, err := s.projects.transition(ctx, projectID,
		[]models.ProjectStatus{models.ProjectStatusInProgress}, models.ProjectStatusSubmitted,
		nil); err != nil {
		return nil, err
	}

	attachments, names, err := uploadAll(ctx, s.bucket, "submissions", files)
	if err != nil {
		s.revertProject(ctx, projectID)
		return nil, err
	}

	links := make([]string, 0, len(in.Links))
	for _, l := range in.Links {
		if l = strings.TrimSpace(l); l != "" {
			links = append(links, l)
		}
	}
	now := time.Now().UTC()
	sub := models.Submission{
		ProjectID:    projectID,
		FreelancerID: actor.ID,
		Message:      strings.TrimSpace(in.Message),
		Links:        links,
		Attachments:  attachments,
		Status:       models.SubmissionSubmitted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	res, err := s.submissions.InsertOne(ctx, sub)
	if err != nil {
		_ = storage.DeleteObjects(ctx, s.bucket, names)
		s.revertProject(ctx, projectID)
		return nil, err
	}
	sub.ID = res.InsertedID.(bson.ObjectID)
	return &sub, nil
}

func (s *SubmissionService) revertProject(ctx context.Context, projectID bson.ObjectID) {
	_, err := s.projects.projects.UpdateOne(ctx,
		bson.M{"_id": projectID, "status": models.ProjectStatusSubmitted},
		bson.M{"$set": bson.M{"status": models.ProjectStatusInProgress, "updatedAt": time.Now().UTC()}})
	if err != nil {
		s.logger.Error("project status not reverted", zap.Error(err), zap.String("project_id", projectID.Hex()))
	}
}

func (s *SubmissionService) Get(ctx context.Context, id bson.ObjectID) (*models.Submission, error) {
	return findOne[models.Submission](ctx, s.submissions, bson.M{"_id": id}, "submission")
}

// ListForProject is visible to the project participants and admins.
func (s *SubmissionService) ListForProject(ctx context.Context, projectID bson.ObjectID, actor Actor, p utils.Pagination) ([]models.Submission, int64, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}
	if !actor.IsAdmin() && !project.IsParticipant(actor.ID) {
		return nil, 0, forbidden("not a participant of this project")
	}
	return findPage[models.Submission](ctx, s.submissions, bson.M{"projectId": projectID}, bson.D{{Key: "createdAt", Value: -1}}, p)
}

func (s *SubmissionService) ListAll(ctx context.Context, status string, p utils.Pagination) ([]models.Submission, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return findPage[models.Submission](ctx, s.submissions, filter, bson.D{{Key: "createdAt", Value: -1}}, p)
}

func (s *SubmissionService) StartReview(ctx context.Context, id bson.ObjectID, actor Actor) (*models.Submission, error) {
	return s.step(ctx, id, actor, models.StepStartReview, "")
}

func (s *SubmissionService) Approve(ctx context.Context, id bson.ObjectID, actor Actor, note string) (*models.Submission, error) {
	return s.step(ctx, id, actor, models.StepApprove, note)
}

func (s *SubmissionService) Reject(ctx context.Context, id bson.ObjectID, actor Actor, note string) (*models.Submission, error) {
	if strings.TrimSpace(note) == "" {
		return nil, invalid("a note is required when rejecting work")
	}
	return s.step(ctx, id, actor, models.StepReject, note)
}

// step applies one workflow move: compare-and-set the submission, then the project. When the
// project no longer matches, the submission is put back.
func (s *SubmissionService) step(ctx context.Context, id bson.ObjectID, actor Actor, st models.SubmissionStep, note string) (*models.Submission, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.authorize(ctx, current.ProjectID, actor); err != nil {
		return nil, err
	}
	if !st.Allows(current.Status) {
		return nil, badTransition("submission is %s, cannot move to %s", current.Status, st.To)
	}

	now := time.Now().UTC()
	set := bson.M{"status": st.To, "reviewerId": actor.ID, "updatedAt": now}
	if st.To != models.SubmissionUnderReview {
		set["reviewedAt"] = now
	}
	if note = strings.TrimSpace(note); note != "" {
		set["reviewNote"] = note
	}
	out, err := updateAndReturn[models.Submission](ctx, s.submissions,
		bson.M{"_id": id, "status": current.Status}, bson.M{"$set": set}, "submission")
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, badTransition("submission changed concurrently")
		}
		return nil, err
	}

	if _, err := s.projects.transition(ctx, current.ProjectID, st.ProjectFrom, st.ProjectStatus, nil); err != nil {
		_, _ = s.submissions.UpdateOne(ctx, bson.M{"_id": id, "status": st.To}, bson.M{
			"$set":   bson.M{"status": current.Status, "updatedAt": now},
			"$unset": bson.M{"reviewedAt": "", "reviewNote": ""},
		})
		return nil, err
	}
	return out, nil
}
