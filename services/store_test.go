package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/database"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/mailer"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/storage"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// These tests need a MongoDB server; set MONGODB_TEST_URI to run them.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx := context.Background()
	db, err := database.Connect(ctx, uri, fmt.Sprintf("mmv_test_%d", time.Now().UnixNano()), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.EnsureIndexes(ctx))
	t.Cleanup(func() {
		_ = db.Database.Drop(context.Background())
		_ = db.Disconnect(context.Background())
	})
	return db
}

type recordingMailer struct {
	sent []mailer.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type stack struct {
	bucket       *storage.MemoryBucket
	mail         *recordingMailer
	tags         *TagService
	users        *UserService
	auth         *AuthService
	invitations  *InvitationService
	projects     *ProjectService
	applications *ApplicationService
	submissions  *SubmissionService
	reviews      *ReviewService
	bookmarks    *BookmarkService
	categories   *CategoryService
	macros       *MacroService
	cms          *CMSService
	visitors     *VisitorService
}

func newStack(t *testing.T) *stack {
	db := newTestDB(t)
	log := zaptest.NewLogger(t)
	s := &stack{bucket: storage.NewMemoryBucket("https://media.test"), mail: &recordingMailer{}}
	s.tags = NewTagService(db, log)
	s.users = NewUserService(db, s.bucket, s.tags, log)
	s.auth = NewAuthService(db, s.users, nil, s.mail, AuthConfig{
		JWTSecret:        "access",
		RefreshSecret:    "refresh",
		AccessTTL:        time.Minute,
		RefreshTTL:       time.Hour,
		PasswordResetTTL: time.Hour,
		AppBaseURL:       "https://app.test",
	}, log)
	s.invitations = NewInvitationService(db, s.users, s.mail, time.Hour, "https://app.test", log)
	s.projects = NewProjectService(db, s.users, s.tags, s.bucket, 5, log)
	s.applications = NewApplicationService(db, s.projects, s.users, s.bucket, log)
	s.submissions = NewSubmissionService(db, s.projects, s.bucket, log)
	s.reviews = NewReviewService(db, s.projects, log)
	s.bookmarks = NewBookmarkService(db, s.users, s.projects)
	s.categories = NewCategoryService(db, s.bucket, log)
	s.macros = NewMacroService(db, log)
	s.cms = NewCMSService(db, s.users, s.tags, s.bucket, log)
	s.visitors = NewVisitorService(db, nil, log)
	return s
}

func (s *stack) account(t *testing.T, role models.Role, email string) Actor {
	t.Helper()
	u, err := s.users.Create(context.Background(), NewAccount{
		FirstName: strings.Split(email, "@")[0],
		Email:     email,
		Password:  "password123",
		Role:      role,
	})
	require.NoError(t, err)
	return Actor{ID: u.ID, Role: role}
}

func linkToken(t *testing.T, body string) string {
	t.Helper()
	i := strings.Index(body, "token=")
	require.GreaterOrEqual(t, i, 0)
	tok := body[i+len("token="):]
	if j := strings.IndexAny(tok, " \n\r\"<"); j >= 0 {
		tok = tok[:j]
	}
	return tok
}

func TestAuthFlow(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	u, err := s.auth.Register(ctx, dto.RegisterDTO{FirstName: "Ana", Email: "Ana@Example.com", Password: "password123", Role: "CLIENT"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)

	_, err = s.auth.Register(ctx, dto.RegisterDTO{FirstName: "Ana", Email: "ana@example.com", Password: "password123", Role: "CLIENT"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.auth.Login(ctx, dto.LoginDTO{Email: "ana@example.com", Password: "wrong"}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	session, err := s.auth.Login(ctx, dto.LoginDTO{Email: "ana@example.com", Password: "password123"}, "127.0.0.1")
	require.NoError(t, err)
	claims, err := utils.ValidateToken(session.AccessToken, "access")
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.UserID)

	rotated, err := s.auth.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

	_, err = s.auth.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized, "a rotated token cannot be reused")

	require.NoError(t, s.auth.ForgotPassword(ctx, "ana@example.com"))
	require.NoError(t, s.auth.ForgotPassword(ctx, "nobody@example.com"))
	require.Len(t, s.mail.sent, 1)

	token := linkToken(t, s.mail.sent[0].TextBody)
	require.NoError(t, s.auth.ResetPassword(ctx, dto.ResetPasswordDTO{Token: token, NewPassword: "another-pass"}))
	assert.ErrorIs(t, s.auth.ResetPassword(ctx, dto.ResetPasswordDTO{Token: token, NewPassword: "third-pass"}), ErrInvalidInput)

	_, err = s.auth.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized, "a reset revokes every session")

	_, err = s.auth.Login(ctx, dto.LoginDTO{Email: "ana@example.com", Password: "another-pass"}, "127.0.0.1")
	require.NoError(t, err)
}

func TestBannedUserCannotLogin(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	admin := s.account(t, models.RoleAdmin, "root@example.com")
	client := s.account(t, models.RoleClient, "c@example.com")

	_, err := s.users.SetBanned(ctx, client.ID, admin.ID, true, "spam")
	require.NoError(t, err)
	_, err = s.auth.Login(ctx, dto.LoginDTO{Email: "c@example.com", Password: "password123"}, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.users.SetBanned(ctx, admin.ID, admin.ID, true, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	created, err := s.users.SeedAdmin(ctx, "Admin@Example.com", "password123")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.users.SeedAdmin(ctx, "admin@example.com", "changed")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = s.auth.Login(ctx, dto.LoginDTO{Email: "admin@example.com", Password: "password123"}, "")
	require.NoError(t, err)
}

func TestInvitationAccept(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	admin := s.account(t, models.RoleAdmin, "root@example.com")

	_, err := s.invitations.Invite(ctx, admin.ID, dto.InviteUserDTO{Email: "root@example.com", Role: "CLIENT"})
	assert.ErrorIs(t, err, ErrConflict)

	first, err := s.invitations.Invite(ctx, admin.ID, dto.InviteUserDTO{Email: "new@example.com", Role: "FREELANCER", FirstName: "Neo"})
	require.NoError(t, err)
	_, err = s.invitations.Invite(ctx, admin.ID, dto.InviteUserDTO{Email: "new@example.com", Role: "FREELANCER", FirstName: "Neo"})
	require.NoError(t, err)
	require.Len(t, s.mail.sent, 2)

	// the first link was superseded
	_, err = s.invitations.Accept(ctx, dto.AcceptInvitationDTO{Token: linkToken(t, s.mail.sent[0].TextBody), Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	user, err := s.invitations.Accept(ctx, dto.AcceptInvitationDTO{Token: linkToken(t, s.mail.sent[1].TextBody), Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleFreelancer, user.Role)
	assert.Equal(t, "Neo", user.FirstName)
	assert.True(t, user.EmailVerified)

	_, err = s.invitations.Revoke(ctx, first.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestProjectLifecycle(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	client := s.account(t, models.RoleClient, "client@example.com")
	alice := s.account(t, models.RoleFreelancer, "alice@example.com")
	bob := s.account(t, models.RoleFreelancer, "bob@example.com")

	project, err := s.projects.Create(ctx, client, dto.CreateProjectDTO{
		Title:       "Wedding highlight reel",
		Description: "<p>Cut a 5 minute reel from 3 hours of footage.</p>",
		Type:        "FIXED",
		BudgetMin:   "300",
		BudgetMax:   "500",
		Tags:        []string{"Wedding"},
		Skills:      []string{"Premiere Pro"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusOpen, project.Status)

	list, total, err := s.projects.ListPublic(ctx, ProjectFilter{Tag: "wedding", BudgetMin: "450"}, utils.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	_, err = s.applications.Apply(ctx, project.ID, client, dto.CreateApplicationDTO{BidAmount: "1", EstimatedDays: 1}, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	appA, err := s.applications.Apply(ctx, project.ID, alice, dto.CreateApplicationDTO{CoverLetter: "I edit weddings every weekend.", BidAmount: "400", EstimatedDays: 5}, nil)
	require.NoError(t, err)
	appB, err := s.applications.Apply(ctx, project.ID, bob, dto.CreateApplicationDTO{CoverLetter: "Fast turnaround guaranteed.", BidAmount: "350", EstimatedDays: 3}, nil)
	require.NoError(t, err)
	_, err = s.applications.Apply(ctx, project.ID, bob, dto.CreateApplicationDTO{CoverLetter: "Again", BidAmount: "350", EstimatedDays: 3}, nil)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.applications.Hire(ctx, appA.ID, bob)
	assert.ErrorIs(t, err, ErrForbidden)

	hired, err := s.applications.Hire(ctx, appA.ID, client)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationHired, hired.Status)
	assert.Equal(t, models.ProjectStatusInProgress, hired.Project.Status)

	other, err := s.applications.Get(ctx, appB.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, other.Status)

	_, err = s.applications.Hire(ctx, appB.ID, client)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.submissions.Submit(ctx, project.ID, bob, dto.CreateSubmissionDTO{Message: "done"}, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	sub, err := s.submissions.Submit(ctx, project.ID, alice, dto.CreateSubmissionDTO{Message: "First cut", Links: []string{"https://vimeo.test/1"}}, nil)
	require.NoError(t, err)
	_, err = s.submissions.Submit(ctx, project.ID, alice, dto.CreateSubmissionDTO{Message: "Again"}, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.submissions.Reject(ctx, sub.ID, client, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.submissions.Reject(ctx, sub.ID, client, "Music is too loud")
	require.NoError(t, err)
	p, err := s.projects.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusInProgress, p.Status)

	_, err = s.reviews.Create(ctx, project.ID, client, dto.CreateReviewDTO{Rating: 5})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	sub2, err := s.submissions.Submit(ctx, project.ID, alice, dto.CreateSubmissionDTO{Message: "Second cut"}, nil)
	require.NoError(t, err)
	_, err = s.submissions.StartReview(ctx, sub2.ID, client)
	require.NoError(t, err)
	_, err = s.submissions.StartReview(ctx, sub2.ID, client)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	approved, err := s.submissions.Approve(ctx, sub2.ID, client, "")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionApproved, approved.Status)

	p, err = s.projects.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCompleted, p.Status)
	assert.NotNil(t, p.CompletedAt)

	_, err = s.projects.SetStatus(ctx, project.ID, Actor{ID: bson.NewObjectID(), Role: models.RoleAdmin}, "OPEN")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.reviews.Create(ctx, project.ID, client, dto.CreateReviewDTO{Rating: 5, Comment: "Great"})
	require.NoError(t, err)
	_, err = s.reviews.Create(ctx, project.ID, client, dto.CreateReviewDTO{Rating: 4})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = s.reviews.Create(ctx, project.ID, bob, dto.CreateReviewDTO{Rating: 1})
	assert.ErrorIs(t, err, ErrForbidden)

	summary, err := s.reviews.Summary(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Count)
	assert.Equal(t, 5.0, summary.Average)

	tags, _, err := s.tags.List(ctx, "PROJECT", "", utils.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "wedding", tags[0].Name)
	assert.Equal(t, int64(1), tags[0].UsageCount)
}

// hiredProject returns an IN_PROGRESS project with its client and hired freelancer.
func (s *stack) hiredProject(t *testing.T) (*models.Project, Actor, Actor) {
	t.Helper()
	ctx := context.Background()
	client := s.account(t, models.RoleClient, "client@example.com")
	alice := s.account(t, models.RoleFreelancer, "alice@example.com")
	project, err := s.projects.Create(ctx, client, dto.CreateProjectDTO{
		Title:       "Product launch video",
		Description: "Edit a two minute launch video with motion titles.",
		Type:        "FIXED",
		BudgetMin:   "800",
	}, nil)
	require.NoError(t, err)
	app, err := s.applications.Apply(ctx, project.ID, alice, dto.CreateApplicationDTO{CoverLetter: "I cut launch videos.", BidAmount: "800", EstimatedDays: 4}, nil)
	require.NoError(t, err)
	_, err = s.applications.Hire(ctx, app.ID, client)
	require.NoError(t, err)
	return project, client, alice
}

func TestStatusOverrideClosesPendingSubmissions(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	admin := s.account(t, models.RoleAdmin, "root@example.com")
	project, client, alice := s.hiredProject(t)

	first, err := s.submissions.Submit(ctx, project.ID, alice, dto.CreateSubmissionDTO{Message: "First cut"}, nil)
	require.NoError(t, err)

	_, err = s.projects.SetStatus(ctx, project.ID, client, "IN_PROGRESS")
	assert.ErrorIs(t, err, ErrForbidden)

	p, err := s.projects.SetStatus(ctx, project.ID, admin, "IN_PROGRESS")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusInProgress, p.Status)

	closed, err := s.submissions.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, closed.Status)
	require.NotNil(t, closed.ReviewerID)
	assert.Equal(t, admin.ID, *closed.ReviewerID)
	assert.Contains(t, closed.ReviewNote, "IN_PROGRESS")
	assert.NotNil(t, closed.ReviewedAt)

	// the freelancer can hand in work again
	second, err := s.submissions.Submit(ctx, project.ID, alice, dto.CreateSubmissionDTO{Message: "Second cut"}, nil)
	require.NoError(t, err)
	_, err = s.submissions.StartReview(ctx, second.ID, client)
	require.NoError(t, err)

	p, err = s.projects.SetStatus(ctx, project.ID, admin, "COMPLETED")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCompleted, p.Status)

	approved, err := s.submissions.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionApproved, approved.Status)

	_, err = s.submissions.Approve(ctx, second.ID, client, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBookmarks(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	client := s.account(t, models.RoleClient, "client@example.com")
	alice := s.account(t, models.RoleFreelancer, "alice@example.com")

	require.NoError(t, s.bookmarks.AddFavorite(ctx, client, alice.ID))
	require.NoError(t, s.bookmarks.AddFavorite(ctx, client, alice.ID))
	assert.ErrorIs(t, s.bookmarks.AddFavorite(ctx, alice, alice.ID), ErrForbidden)

	favs, total, err := s.bookmarks.ListFavorites(ctx, client, utils.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.NotNil(t, favs[0].Freelancer)
	assert.Equal(t, "alice@example.com", favs[0].Freelancer.Email)
	assert.Empty(t, favs[0].Freelancer.PasswordHash)

	require.NoError(t, s.bookmarks.RemoveFavorite(ctx, client, alice.ID))
	assert.ErrorIs(t, s.bookmarks.RemoveFavorite(ctx, client, alice.ID), ErrNotFound)

	project, err := s.projects.Create(ctx, client, dto.CreateProjectDTO{
		Title: "Podcast edit", Description: "Edit four podcast episodes of one hour each.", Type: "HOURLY", BudgetMin: "20",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, s.bookmarks.SaveProject(ctx, alice, project.ID))
	saved, _, err := s.bookmarks.ListSaved(ctx, alice, utils.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Podcast edit", saved[0].Project.Title)
}

type copyEncoder struct {
	bucket storage.Bucket
}

func (e copyEncoder) Compress(ctx context.Context, src, dst string) error {
	r, err := e.bucket.NewReader(ctx, src)
	if err != nil {
		return err
	}
	defer r.Close()
	if strings.Contains(src, "broken") {
		return fmt.Errorf("encoder exited with 1")
	}
	_, err = storage.Upload(ctx, e.bucket, dst, "video/mp4", io.LimitReader(r, 1<<20))
	return err
}

func TestVideoJobs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	bucket := storage.NewMemoryBucket("https://media.test")
	svc := NewMediaService(db, bucket, copyEncoder{bucket: bucket}, 2, time.Minute, zap.NewNop())
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	_, err := storage.Upload(ctx, bucket, "videos/original/a.mp4", "video/mp4", strings.NewReader("frames"))
	require.NoError(t, err)
	_, err = storage.Upload(ctx, bucket, "videos/original/broken.mp4", "video/mp4", strings.NewReader("x"))
	require.NoError(t, err)

	admin := bson.NewObjectID()
	_, err = svc.RequestCompression(ctx, admin, "videos/original/missing.mp4")
	assert.ErrorIs(t, err, ErrNotFound)

	good, err := svc.RequestCompression(ctx, admin, "https://media.test/videos/original/a.mp4")
	require.NoError(t, err)
	bad, err := svc.RequestCompression(ctx, admin, "videos/original/broken.mp4")
	require.NoError(t, err)

	waitFor := func(id bson.ObjectID, want models.VideoJobStatus) *models.VideoJob {
		var job *models.VideoJob
		require.Eventually(t, func() bool {
			j, err := svc.GetJob(ctx, id)
			if err != nil {
				return false
			}
			job = j
			return j.Status == want
		}, 5*time.Second, 20*time.Millisecond)
		return job
	}

	done := waitFor(good.ID, models.VideoJobCompleted)
	assert.Equal(t, bucket.PublicURL(done.TargetObject), done.OutputURL)
	data, found := bucket.Bytes(done.TargetObject)
	require.True(t, found)
	assert.Equal(t, []byte("frames"), data)

	failed := waitFor(bad.ID, models.VideoJobFailed)
	assert.Contains(t, failed.Error, "encoder exited")
	_, found = bucket.Bytes(failed.TargetObject)
	assert.False(t, found)
}
