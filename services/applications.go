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

type ApplicationService struct {
	applications *mongo.Collection
	projects     *ProjectService
	users        *UserService
	bucket       storage.Bucket
	logger       *zap.Logger
}

func NewApplicationService(db *database.DB, projects *ProjectService, users *UserService, bucket storage.Bucket, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{
		applications: db.Collection(database.ApplicationsCollection),
		projects:     projects,
		users:        users,
		bucket:       bucket,
		logger:       logger,
	}
}

func (s *ApplicationService) Apply(ctx context.Context, projectID bson.ObjectID, actor Actor, in dto.CreateApplicationDTO, files []Upload) (*models.Application, error) {
	if actor.Role != models.RoleFreelancer {
		return nil, forbidden("only freelancers can apply")
	}
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != models.ProjectStatusOpen {
		return nil, conflict("project is not accepting applications")
	}
	if project.ClientID == actor.ID {
		return nil, forbidden("cannot apply to your own project")
	}
	bid, err := utils.ParseAmount(in.BidAmount)
	if err != nil {
		return nil, invalid("bidAmount: %v", err)
	}

	attachments, names, err := uploadAll(ctx, s.bucket, "applications", files)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	app := models.Application{
		ProjectID:     projectID,
		FreelancerID:  actor.ID,
		CoverLetter:   strings.TrimSpace(in.CoverLetter),
		BidAmount:     bid,
		EstimatedDays: in.EstimatedDays,
		Attachments:   attachments,
		Status:        models.ApplicationPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	res, err := s.applications.InsertOne(ctx, app)
	if err != nil {
		_ = storage.DeleteObjects(ctx, s.bucket, names)
		if utils.IsDuplicateKey(err) {
			return nil, conflict("already applied to this project")
		}
		return nil, err
	}
	app.ID = res.InsertedID.(bson.ObjectID)

	if err := s.projects.incApplications(ctx, projectID, 1); err != nil {
		s.logger.Warn("applications count not updated", zap.Error(err), zap.String("project_id", projectID.Hex()))
	}
	return &app, nil
}

func (s *ApplicationService) Get(ctx context.Context, id bson.ObjectID) (*models.Application, error) {
	return findOne[models.Application](ctx, s.applications, bson.M{"_id": id}, "application")
}

// View lets the applicant, the project owner and admins read an application.
func (s *ApplicationService) View(ctx context.Context, id bson.ObjectID, actor Actor) (*models.Application, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() || app.FreelancerID == actor.ID {
		return app, nil
	}
	project, err := s.projects.Get(ctx, app.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.ClientID != actor.ID {
		return nil, forbidden("not allowed to view this application")
	}
	app.Project = project
	return app, nil
}

// ListForProject is used by the project owner and admins; applicants are attached.
func (s *ApplicationService) ListForProject(ctx context.Context, projectID bson.ObjectID, actor Actor, status string, p utils.Pagination) ([]models.Application, int64, error) {
	if _, err := s.projects.authorize(ctx, projectID, actor); err != nil {
		return nil, 0, err
	}
	filter := bson.M{"projectId": projectID}
	if status != "" {
		filter["status"] = status
	}
	items, total, err := findPage[models.Application](ctx, s.applications, filter, bson.D{{Key: "createdAt", Value: -1}}, p)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachFreelancers(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *ApplicationService) ListMine(ctx context.Context, actor Actor, status string, p utils.Pagination) ([]models.Application, int64, error) {
	filter := bson.M{"freelancerId": actor.ID}
	if status != "" {
		filter["status"] = status
	}
	items, total, err := findPage[models.Application](ctx, s.applications, filter, bson.D{{Key: "createdAt", Value: -1}}, p)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachProjects(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *ApplicationService) ListAll(ctx context.Context, status string, p utils.Pagination) ([]models.Application, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return findPage[models.Application](ctx, s.applications, filter, bson.D{{Key: "createdAt", Value: -1}}, p)
}

func (s *ApplicationService) attachFreelancers(ctx context.Context, items []models.Application) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]bson.ObjectID, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.FreelancerID)
	}
	cursor, err := s.users.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return err
	}
	byID := make(map[bson.ObjectID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	for i := range items {
		items[i].Freelancer = byID[items[i].FreelancerID]
	}
	return nil
}

func (s *ApplicationService) attachProjects(ctx context.Context, items []models.Application) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]bson.ObjectID, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.ProjectID)
	}
	cursor, err := s.projects.projects.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return err
	}
	byID := make(map[bson.ObjectID]*models.Project, len(projects))
	for i := range projects {
		byID[projects[i].ID] = &projects[i]
	}
	for i := range items {
		items[i].Project = byID[items[i].ProjectID]
	}
	return nil
}

// decide moves an open application to next with a compare-and-set on its status.
func (s *ApplicationService) decide(ctx context.Context, id, actor bson.ObjectID, from []models.ApplicationStatus, next models.ApplicationStatus) (*models.Application, error) {
	now := time.Now().UTC()
	app, err := updateAndReturn[models.Application](ctx, s.applications,
		bson.M{"_id": id, "status": bson.M{"$in": from}},
		bson.M{"$set": bson.M{"status": next, "decidedBy": actor, "decidedAt": now, "updatedAt": now}},
		"application")
	if errors.Is(err, ErrNotFound) {
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, badTransition("application is %s, cannot move to %s", current.Status, next)
	}
	return app, err
}

// SetStatus lets the owner or an admin shortlist or reject.
func (s *ApplicationService) SetStatus(ctx context.Context, id bson.ObjectID, actor Actor, status string) (*models.Application, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.authorize(ctx, app.ProjectID, actor); err != nil {
		return nil, err
	}
	switch next := models.ApplicationStatus(status); next {
	case models.ApplicationShortlisted:
		return s.decide(ctx, id, actor.ID, []models.ApplicationStatus{models.ApplicationPending}, next)
	case models.ApplicationRejected:
		return s.decide(ctx, id, actor.ID, models.OpenApplicationStatuses, next)
	}
	return nil, invalid("status must be SHORTLISTED or REJECTED")
}

func (s *ApplicationService) Withdraw(ctx context.Context, id bson.ObjectID, actor Actor) (*models.Application, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.FreelancerID != actor.ID {
		return nil, forbidden("not your application")
	}
	out, err := s.decide(ctx, id, actor.ID, models.OpenApplicationStatuses, models.ApplicationWithdrawn)
	if err != nil {
		return nil, err
	}
	if err := s.projects.incApplications(ctx, app.ProjectID, -1); err != nil {
		s.logger.Warn("applications count not updated", zap.Error(err))
	}
	return out, nil
}

// Hire assigns the applicant to the project. The project is claimed first (OPEN -> IN_PROGRESS)
// so two hires on the same project cannot both succeed.
func (s *ApplicationService) Hire(ctx context.Context, id bson.ObjectID, actor Actor) (*models.Application, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !app.Status.IsOpen() {
		return nil, badTransition("application is %s, cannot hire", app.Status)
	}
	if _, err := s.projects.authorize(ctx, app.ProjectID, actor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	project, err := s.projects.transition(ctx, app.ProjectID,
		[]models.ProjectStatus{models.ProjectStatusOpen}, models.ProjectStatusInProgress,
		bson.M{"freelancerId": app.FreelancerID, "hiredAt": now})
	if err != nil {
		return nil, err
	}

	hired, err := s.decide(ctx, id, actor.ID, models.OpenApplicationStatuses, models.ApplicationHired)
	if err != nil {
		// the applicant withdrew in between: reopen the project
		_, _ = s.projects.projects.UpdateOne(ctx,
			bson.M{"_id": project.ID, "status": models.ProjectStatusInProgress, "freelancerId": app.FreelancerID},
			bson.M{"$set": bson.M{"status": models.ProjectStatusOpen, "updatedAt": now},
				"$unset": bson.M{"freelancerId": "", "hiredAt": ""}})
		return nil, err
	}

	if err := s.projects.closeOpenApplications(ctx, app.ProjectID, actor.ID, &id); err != nil {
		s.logger.Warn("other applications not rejected", zap.Error(err), zap.String("project_id", app.ProjectID.Hex()))
	}
	hired.Project = project
	return hired, nil
}

func (s *ApplicationService) Count(ctx context.Context) (int64, error) {
	return s.applications.CountDocuments(ctx, bson.M{})
}
