package services

import (
	"context"
	"errors"
	"fmt"
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

type ProjectService struct {
	projects     *mongo.Collection
	applications *mongo.Collection
	submissions  *mongo.Collection
	categories   *mongo.Collection
	users        *UserService
	tags         *TagService
	bucket       storage.Bucket
	maxFiles     int
	logger       *zap.Logger
}

func NewProjectService(db *database.DB, users *UserService, tags *TagService, bucket storage.Bucket, maxFiles int, logger *zap.Logger) *ProjectService {
	if maxFiles <= 0 {
		maxFiles = 10
	}
	return &ProjectService{
		projects:     db.Collection(database.ProjectsCollection),
		applications: db.Collection(database.ApplicationsCollection),
		submissions:  db.Collection(database.SubmissionsCollection),
		categories:   db.Collection(database.CategoriesCollection),
		users:        users,
		tags:         tags,
		bucket:       bucket,
		maxFiles:     maxFiles,
		logger:       logger,
	}
}

func (s *ProjectService) resolveOwner(ctx context.Context, actor Actor, clientID string) (bson.ObjectID, error) {
	switch {
	case actor.Role == models.RoleClient:
		return actor.ID, nil
	case actor.IsAdmin():
		if clientID == "" {
			return bson.ObjectID{}, invalid("clientId is required")
		}
		id, err := bson.ObjectIDFromHex(clientID)
		if err != nil {
			return bson.ObjectID{}, invalid("invalid clientId")
		}
		u, err := s.users.GetActive(ctx, id)
		if err != nil {
			return bson.ObjectID{}, err
		}
		if u.Role != models.RoleClient {
			return bson.ObjectID{}, invalid("clientId must reference a client")
		}
		return id, nil
	}
	return bson.ObjectID{}, forbidden("only clients can post projects")
}

func (s *ProjectService) resolveCategory(ctx context.Context, hex string) (*bson.ObjectID, error) {
	if strings.TrimSpace(hex) == "" {
		return nil, nil
	}
	id, err := bson.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return nil, invalid("invalid categoryId")
	}
	n, err := s.categories.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, notFound("category")
	}
	return &id, nil
}

func (s *ProjectService) Create(ctx context.Context, actor Actor, in dto.CreateProjectDTO, files []Upload) (*models.Project, error) {
	if len(files) > s.maxFiles {
		return nil, invalid("at most %d attachments allowed", s.maxFiles)
	}
	owner, err := s.resolveOwner(ctx, actor, in.ClientID)
	if err != nil {
		return nil, err
	}
	lo, hi, err := utils.ParseBudget(in.BudgetMin, in.BudgetMax)
	if err != nil {
		return nil, invalid("%v", err)
	}
	category, err := s.resolveCategory(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if in.Deadline != nil && in.Deadline.Before(time.Now()) {
		return nil, invalid("deadline must be in the future")
	}

	title := strings.TrimSpace(in.Title)
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}

	now := time.Now().UTC()
	p := models.Project{
		Title:          title,
		Slug:           utils.GenerateSlug(title),
		Description:    sanitizeHTML(in.Description),
		ClientID:       owner,
		CategoryID:     category,
		Type:           models.ProjectType(in.Type),
		BudgetMin:      lo,
		BudgetMax:      hi,
		BudgetMinValue: utils.AmountFloat(lo),
		BudgetMaxValue: utils.AmountFloat(hi),
		Currency:       currency,
		Deadline:       in.Deadline,
		Skills:         utils.NormalizeLabels(in.Skills),
		Tags:           utils.NormalizeLabels(in.Tags),
		VideoURL:       strings.TrimSpace(in.VideoURL),
		Status:         models.ProjectStatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if strings.TrimSpace(p.Description) == "" {
		return nil, invalid("description cannot be empty")
	}

	attachments, names, err := uploadAll(ctx, s.bucket, "projects", files)
	if err != nil {
		return nil, err
	}
	p.Attachments = attachments

	res, err := s.projects.InsertOne(ctx, p)
	if err != nil {
		_ = storage.DeleteObjects(ctx, s.bucket, names)
		return nil, err
	}
	p.ID = res.InsertedID.(bson.ObjectID)

	s.trackLabels(ctx, nil, &p)
	return &p, nil
}

func (s *ProjectService) trackLabels(ctx context.Context, before, after *models.Project) {
	var oldTags, newTags, oldSkills, newSkills []string
	if before != nil {
		oldTags, oldSkills = before.Tags, before.Skills
	}
	if after != nil {
		newTags, newSkills = after.Tags, after.Skills
	}
	if err := s.tags.Track(ctx, models.TagTypeProject, oldTags, newTags); err != nil {
		s.logger.Warn("project tags not tracked", zap.Error(err))
	}
	if err := s.tags.Track(ctx, models.TagTypeSkill, oldSkills, newSkills); err != nil {
		s.logger.Warn("project skills not tracked", zap.Error(err))
	}
}

func (s *ProjectService) Get(ctx context.Context, id bson.ObjectID) (*models.Project, error) {
	return findOne[models.Project](ctx, s.projects, notDeleted(bson.M{"_id": id}), "project")
}

// View hides non-open projects from everyone but their participants and admins.
func (s *ProjectService) View(ctx context.Context, id bson.ObjectID, viewer *Actor) (*models.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == models.ProjectStatusOpen {
		return p, nil
	}
	if viewer != nil && (viewer.IsAdmin() || p.IsParticipant(viewer.ID)) {
		return p, nil
	}
	return nil, notFound("project")
}

type ProjectFilter struct {
	Q          string
	Tag        string
	Skill      string
	CategoryID string
	Type       string
	BudgetMin  string
	BudgetMax  string
	Status     string
	Featured   *bool
	Sort       string
}

func buildProjectFilter(f ProjectFilter) (bson.M, error) {
	filter := notDeleted(bson.M{})

	if f.Status != "" {
		if !models.ProjectStatus(f.Status).Valid() {
			return nil, invalid("unknown status %q", f.Status)
		}
		filter["status"] = f.Status
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if q := strings.TrimSpace(f.Q); q != "" {
		rx := bson.M{"$regex": regexQuote(q), "$options": "i"}
		filter["$or"] = bson.A{bson.M{"title": rx}, bson.M{"description": rx}}
	}
	if tag := utils.NormalizeLabels([]string{f.Tag}); len(tag) > 0 {
		filter["tags"] = tag[0]
	}
	if skill := utils.NormalizeLabels([]string{f.Skill}); len(skill) > 0 {
		filter["skills"] = skill[0]
	}
	if f.CategoryID != "" {
		id, err := bson.ObjectIDFromHex(f.CategoryID)
		if err != nil {
			return nil, invalid("invalid categoryId")
		}
		filter["categoryId"] = id
	}
	if f.Featured != nil {
		filter["isFeatured"] = *f.Featured
	}

	// budget ranges overlap the requested range
	if f.BudgetMin != "" {
		v, err := utils.ParseAmount(f.BudgetMin)
		if err != nil {
			return nil, invalid("budgetMin: %v", err)
		}
		filter["budgetMaxValue"] = bson.M{"$gte": utils.AmountFloat(v)}
	}
	if f.BudgetMax != "" {
		v, err := utils.ParseAmount(f.BudgetMax)
		if err != nil {
			return nil, invalid("budgetMax: %v", err)
		}
		filter["budgetMinValue"] = bson.M{"$lte": utils.AmountFloat(v)}
	}
	return filter, nil
}

func projectSort(sort string) bson.D {
	switch sort {
	case "oldest":
		return bson.D{{Key: "createdAt", Value: 1}}
	case "budget_asc":
		return bson.D{{Key: "budgetMinValue", Value: 1}, {Key: "createdAt", Value: -1}}
	case "budget_desc":
		return bson.D{{Key: "budgetMaxValue", Value: -1}, {Key: "createdAt", Value: -1}}
	case "deadline":
		return bson.D{{Key: "deadline", Value: 1}, {Key: "createdAt", Value: -1}}
	case "popular":
		return bson.D{{Key: "applicationsCount", Value: -1}, {Key: "createdAt", Value: -1}}
	}
	return bson.D{{Key: "isFeatured", Value: -1}, {Key: "createdAt", Value: -1}}
}

// ListPublic lists open projects only, whatever status was asked for.
func (s *ProjectService) ListPublic(ctx context.Context, f ProjectFilter, p utils.Pagination) ([]models.Project, int64, error) {
	f.Status = string(models.ProjectStatusOpen)
	filter, err := buildProjectFilter(f)
	if err != nil {
		return nil, 0, err
	}
	return findPage[models.Project](ctx, s.projects, filter, projectSort(f.Sort), p)
}

func (s *ProjectService) ListAll(ctx context.Context, f ProjectFilter, p utils.Pagination) ([]models.Project, int64, error) {
	filter, err := buildProjectFilter(f)
	if err != nil {
		return nil, 0, err
	}
	return findPage[models.Project](ctx, s.projects, filter, projectSort(f.Sort), p)
}

// ListMine lists the projects a client owns or a freelancer was hired on.
func (s *ProjectService) ListMine(ctx context.Context, actor Actor, f ProjectFilter, p utils.Pagination) ([]models.Project, int64, error) {
	filter, err := buildProjectFilter(f)
	if err != nil {
		return nil, 0, err
	}
	switch actor.Role {
	case models.RoleClient:
		filter["clientId"] = actor.ID
	case models.RoleFreelancer:
		filter["freelancerId"] = actor.ID
	default:
		return nil, 0, forbidden("only clients and freelancers have own projects")
	}
	return findPage[models.Project](ctx, s.projects, filter, projectSort(f.Sort), p)
}

// authorize loads the project and checks the actor owns it or is an admin.
func (s *ProjectService) authorize(ctx context.Context, id bson.ObjectID, actor Actor) (*models.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && p.ClientID != actor.ID {
		return nil, forbidden("not the project owner")
	}
	return p, nil
}

func projectUpdateSet(current *models.Project, in dto.UpdateProjectDTO) (bson.M, error) {
	set := bson.M{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, invalid("title cannot be empty")
		}
		set["title"] = t
		set["slug"] = utils.GenerateSlug(t)
	}
	if in.Description != nil {
		d := sanitizeHTML(*in.Description)
		if strings.TrimSpace(d) == "" {
			return nil, invalid("description cannot be empty")
		}
		set["description"] = d
	}
	if in.Type != nil {
		set["type"] = models.ProjectType(*in.Type)
	}
	if in.BudgetMin != nil || in.BudgetMax != nil {
		lo, hi := current.BudgetMin, current.BudgetMax
		if in.BudgetMin != nil {
			lo = *in.BudgetMin
		}
		if in.BudgetMax != nil {
			hi = *in.BudgetMax
		}
		lo, hi, err := utils.ParseBudget(lo, hi)
		if err != nil {
			return nil, invalid("%v", err)
		}
		set["budgetMin"], set["budgetMax"] = lo, hi
		set["budgetMinValue"], set["budgetMaxValue"] = utils.AmountFloat(lo), utils.AmountFloat(hi)
	}
	if in.Currency != nil {
		set["currency"] = strings.ToUpper(strings.TrimSpace(*in.Currency))
	}
	if in.Deadline != nil {
		if in.Deadline.Before(time.Now()) {
			return nil, invalid("deadline must be in the future")
		}
		set["deadline"] = *in.Deadline
	}
	if in.Skills != nil {
		set["skills"] = utils.NormalizeLabels(*in.Skills)
	}
	if in.Tags != nil {
		set["tags"] = utils.NormalizeLabels(*in.Tags)
	}
	if in.VideoURL != nil {
		set["videoUrl"] = strings.TrimSpace(*in.VideoURL)
	}
	return set, nil
}

// keepAttachments drops the attachments whose URL is listed in removed.
func keepAttachments(current []models.Attachment, removed []string) (kept []models.Attachment, dropped []string) {
	urls := make([]string, 0, len(current))
	byURL := make(map[string]models.Attachment, len(current))
	for _, a := range current {
		urls = append(urls, a.URL)
		byURL[a.URL] = a
	}
	keep := utils.MergeLists(urls, removed, nil)
	kept = make([]models.Attachment, 0, len(keep))
	for _, u := range keep {
		kept = append(kept, byURL[u])
	}
	for _, u := range utils.IntersectStrings(urls, removed) {
		dropped = append(dropped, byURL[u].ObjectName)
	}
	return kept, dropped
}

func (s *ProjectService) Update(ctx context.Context, id bson.ObjectID, actor Actor, in dto.UpdateProjectDTO, files []Upload) (*models.Project, error) {
	current, err := s.authorize(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && current.Status != models.ProjectStatusOpen {
		return nil, forbidden("only open projects can be edited")
	}

	set, err := projectUpdateSet(current, in)
	if err != nil {
		return nil, err
	}
	if in.IsFeatured != nil {
		if !actor.IsAdmin() {
			return nil, forbidden("only admins can feature projects")
		}
		set["isFeatured"] = *in.IsFeatured
	}
	if in.CategoryID != nil {
		cat, err := s.resolveCategory(ctx, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		set["categoryId"] = cat
	}

	kept, dropped := keepAttachments(current.Attachments, in.RemovedAttachments)
	if len(kept)+len(files) > s.maxFiles {
		return nil, invalid("at most %d attachments allowed", s.maxFiles)
	}
	added, names, err := uploadAll(ctx, s.bucket, "projects", files)
	if err != nil {
		return nil, err
	}
	if len(added) > 0 || len(dropped) > 0 {
		set["attachments"] = append(kept, added...)
	}

	if len(set) == 0 {
		return nil, invalid("no updates provided")
	}
	set["updatedAt"] = time.Now().UTC()

	// the status guard keeps a concurrent hire from being overwritten by a stale client edit
	filter := notDeleted(bson.M{"_id": id, "status": current.Status})
	out, err := updateAndReturn[models.Project](ctx, s.projects, filter, bson.M{"$set": set}, "project")
	if err != nil {
		_ = storage.DeleteObjects(ctx, s.bucket, names)
		if errors.Is(err, ErrNotFound) {
			return nil, conflict("project changed while editing, reload and retry")
		}
		return nil, err
	}

	if err := storage.DeleteObjects(ctx, s.bucket, dropped); err != nil {
		s.logger.Warn("removed attachments not deleted", zap.Error(err), zap.String("project_id", id.Hex()))
	}
	s.trackLabels(ctx, current, out)
	return out, nil
}

func (s *ProjectService) Delete(ctx context.Context, id bson.ObjectID, actor Actor) error {
	current, err := s.authorize(ctx, id, actor)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && current.Status != models.ProjectStatusOpen {
		return forbidden("only open projects can be deleted")
	}
	if err := softDelete(ctx, s.projects, id, actor.ID, "project"); err != nil {
		return err
	}
	s.trackLabels(ctx, current, nil)
	return nil
}

// transition moves the project to next if its current status is one of from. It is the only
// path through which project statuses change.
func (s *ProjectService) transition(ctx context.Context, id bson.ObjectID, from []models.ProjectStatus, next models.ProjectStatus, extra bson.M) (*models.Project, error) {
	allowed := make([]models.ProjectStatus, 0, len(from))
	for _, f := range from {
		if f.CanTransitionTo(next) {
			allowed = append(allowed, f)
		}
	}
	if len(allowed) == 0 {
		return nil, badTransition("project cannot move to %s", next)
	}

	now := time.Now().UTC()
	set := bson.M{"status": next, "updatedAt": now}
	for k, v := range extra {
		set[k] = v
	}
	if next == models.ProjectStatusCompleted {
		set["completedAt"] = now
	}

	out, err := updateAndReturn[models.Project](ctx, s.projects,
		notDeleted(bson.M{"_id": id, "status": bson.M{"$in": allowed}}),
		bson.M{"$set": set}, "project")
	if errors.Is(err, ErrNotFound) {
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, badTransition("project is %s, cannot move to %s", current.Status, next)
	}
	return out, err
}

// SetStatus changes status by hand. Admins may take any legal step; owners may only cancel.
func (s *ProjectService) SetStatus(ctx context.Context, id bson.ObjectID, actor Actor, status string) (*models.Project, error) {
	next := models.ProjectStatus(status)
	if !next.Valid() {
		return nil, invalid("unknown status %q", status)
	}
	current, err := s.authorize(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && next != models.ProjectStatusCancelled {
		return nil, forbidden("owners can only cancel projects")
	}
	if next == models.ProjectStatusInProgress && current.FreelancerID == nil {
		return nil, badTransition("project has no hired freelancer")
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, badTransition("project is %s, cannot move to %s", current.Status, next)
	}
	if current.Status == models.ProjectStatusSubmitted || current.Status == models.ProjectStatusUnderReview {
		if err := s.closeActiveSubmissions(ctx, id, actor.ID, next); err != nil {
			return nil, err
		}
	}

	out, err := s.transition(ctx, id, []models.ProjectStatus{current.Status}, next, nil)
	if err != nil {
		return nil, err
	}
	if next == models.ProjectStatusCancelled {
		if err := s.closeOpenApplications(ctx, id, actor.ID, nil); err != nil {
			s.logger.Warn("open applications not closed", zap.Error(err), zap.String("project_id", id.Hex()))
		}
	}
	return out, nil
}

// closeActiveSubmissions decides the submissions still awaiting review when the project is moved
// by hand: approved when it completes, rejected otherwise.
func (s *ProjectService) closeActiveSubmissions(ctx context.Context, projectID, actor bson.ObjectID, next models.ProjectStatus) error {
	outcome := models.SubmissionRejected
	if next == models.ProjectStatusCompleted {
		outcome = models.SubmissionApproved
	}
	now := time.Now().UTC()
	_, err := s.submissions.UpdateMany(ctx, bson.M{
		"projectId": projectID,
		"status":    bson.M{"$in": models.ActiveSubmissionStatuses},
	}, bson.M{"$set": bson.M{
		"status":     outcome,
		"reviewerId": actor,
		"reviewNote": "project moved to " + string(next) + " by an administrator",
		"reviewedAt": now,
		"updatedAt":  now,
	}})
	if err != nil {
		return fmt.Errorf("close active submissions: %w", err)
	}
	return nil
}

// closeOpenApplications rejects every pending or shortlisted application except keep.
func (s *ProjectService) closeOpenApplications(ctx context.Context, projectID, actor bson.ObjectID, keep *bson.ObjectID) error {
	filter := bson.M{
		"projectId": projectID,
		"status":    bson.M{"$in": models.OpenApplicationStatuses},
	}
	if keep != nil {
		filter["_id"] = bson.M{"$ne": *keep}
	}
	now := time.Now().UTC()
	_, err := s.applications.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"status":    models.ApplicationRejected,
		"decidedBy": actor,
		"decidedAt": now,
		"updatedAt": now,
	}})
	return err
}

func (s *ProjectService) incApplications(ctx context.Context, id bson.ObjectID, delta int) error {
	_, err := s.projects.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"applicationsCount": delta}})
	return err
}

func (s *ProjectService) CountByStatus(ctx context.Context) (map[models.ProjectStatus]int64, error) {
	return countBy[models.ProjectStatus](ctx, s.projects, notDeleted(bson.M{}), "$status")
}
