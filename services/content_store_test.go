package services

import (
	"context"
	"testing"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var firstPage = utils.Pagination{Page: 1, Limit: 20}

func TestCategoryDeleteRefusedWhileInUse(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	client := s.account(t, models.RoleClient, "client@example.com")

	cat, err := s.categories.Create(ctx, dto.CreateCategoryDTO{Name: "Color Grading", IsActive: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "color-grading", cat.Slug)
	_, err = s.categories.Create(ctx, dto.CreateCategoryDTO{Name: "Color grading"}, nil)
	assert.ErrorIs(t, err, ErrConflict)

	project, err := s.projects.Create(ctx, client, dto.CreateProjectDTO{
		Title:       "Grade a short film",
		Description: "Match and grade twelve minutes of footage.",
		Type:        "FIXED",
		BudgetMin:   "300",
		CategoryID:  cat.Id.Hex(),
	}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, s.categories.Delete(ctx, cat.Id), ErrConflict)
	_, err = s.categories.GetBySlug(ctx, "color-grading")
	require.NoError(t, err)

	require.NoError(t, s.projects.Delete(ctx, project.ID, client))
	require.NoError(t, s.categories.Delete(ctx, cat.Id))
	_, err = s.categories.Get(ctx, cat.Id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTagsLifecycle(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	admin := bson.NewObjectID()

	tag, err := s.tags.Create(ctx, dto.CreateTagDTO{Name: " Color  Grading ", Type: "SKILL"})
	require.NoError(t, err)
	assert.Equal(t, "color grading", tag.Name)
	assert.Equal(t, "color-grading", tag.Slug)

	_, err = s.tags.Create(ctx, dto.CreateTagDTO{Name: "color grading", Type: "SKILL"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = s.tags.Create(ctx, dto.CreateTagDTO{Name: "Color Grading", Type: "BLOG"})
	require.NoError(t, err, "slugs are unique per type")
	_, err = s.tags.Create(ctx, dto.CreateTagDTO{Name: "Drone", Type: "GENRE"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	renamed, err := s.tags.Update(ctx, tag.ID, dto.UpdateTagDTO{Name: ptr("Colour Grading")})
	require.NoError(t, err)
	assert.Equal(t, "colour-grading", renamed.Slug)

	require.NoError(t, s.tags.Delete(ctx, tag.ID, admin))
	_, err = s.tags.Get(ctx, tag.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.tags.Create(ctx, dto.CreateTagDTO{Name: "Colour Grading", Type: "SKILL"})
	require.NoError(t, err, "a deleted tag frees its name")

	usage := func() map[string]int64 {
		t.Helper()
		list, _, err := s.tags.List(ctx, "PROJECT", "", firstPage)
		require.NoError(t, err)
		out := make(map[string]int64, len(list))
		for _, tag := range list {
			out[tag.Name] = tag.UsageCount
		}
		return out
	}

	require.NoError(t, s.tags.Track(ctx, models.TagTypeProject, nil, []string{"drone", "wedding"}))
	require.NoError(t, s.tags.Track(ctx, models.TagTypeProject, []string{"drone", "wedding"}, []string{"wedding"}))
	assert.Equal(t, map[string]int64{"drone": 0, "wedding": 1}, usage())

	// untracking never goes below zero
	require.NoError(t, s.tags.Track(ctx, models.TagTypeProject, []string{"drone"}, nil))
	assert.Equal(t, map[string]int64{"drone": 0, "wedding": 1}, usage())

	list, _, err := s.tags.List(ctx, "PROJECT", "dro", firstPage)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, s.tags.Delete(ctx, list[0].ID, admin))

	require.NoError(t, s.tags.Track(ctx, models.TagTypeProject, nil, []string{"drone"}))
	assert.Equal(t, map[string]int64{"drone": 1, "wedding": 1}, usage())
}

func TestMacros(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	admin := bson.NewObjectID()

	m, err := s.macros.Create(ctx, admin, dto.CreateMacroDTO{
		Name:     "Deadline reminder",
		Category: "projects",
		Subject:  "Hi {{ name }}",
		Body:     "Your project {{project}} is due {{due}}. Thanks, {{name}}.",
	})
	require.NoError(t, err)
	assert.True(t, m.IsActive)
	assert.Equal(t, []string{"due", "name", "project"}, m.Variables)

	_, err = s.macros.Create(ctx, admin, dto.CreateMacroDTO{Name: "deadline reminder", Body: "x"})
	assert.ErrorIs(t, err, ErrConflict)

	out, err := s.macros.Render(ctx, m.ID, map[string]string{"name": "Ana", "project": "Wedding reel"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ana", out.Subject)
	assert.Equal(t, "Your project Wedding reel is due {{due}}. Thanks, Ana.", out.Body)
	assert.Equal(t, []string{"due"}, out.Missing)

	updated, err := s.macros.Update(ctx, m.ID, admin, dto.UpdateMacroDTO{
		Body:     ptr("See you soon, {{name}}."),
		IsActive: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, updated.Variables)
	assert.False(t, updated.IsActive)

	_, err = s.macros.Render(ctx, m.ID, nil)
	assert.ErrorIs(t, err, ErrConflict)

	active := true
	_, total, err := s.macros.List(ctx, "", "", &active, firstPage)
	require.NoError(t, err)
	assert.Zero(t, total)
	_, total, err = s.macros.List(ctx, "deadline", "projects", nil, firstPage)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	require.NoError(t, s.macros.Delete(ctx, m.ID, admin))
	_, err = s.macros.Get(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.macros.Create(ctx, admin, dto.CreateMacroDTO{Name: "Deadline reminder", Body: "Hello again"})
	require.NoError(t, err, "a deleted macro frees its name")
}

func TestCMSPublishing(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	editor := s.account(t, models.RoleAdmin, "editor@example.com")

	page, err := s.cms.CreatePage(ctx, editor.ID, dto.CreatePageDTO{
		Title:   "About Us",
		Content: `<p>We cut video.</p><script>alert(1)</script>`,
	})
	require.NoError(t, err)
	assert.Equal(t, "about-us", page.Slug)
	assert.Equal(t, models.ContentDraft, page.Status)
	assert.NotContains(t, page.Content, "script")

	_, err = s.cms.GetPublishedPage(ctx, "about-us")
	assert.ErrorIs(t, err, ErrNotFound, "drafts are not public")

	_, err = s.cms.UpdatePage(ctx, page.ID, editor.ID, dto.UpdatePageDTO{Status: ptr("PUBLISHED")})
	require.NoError(t, err)
	public, err := s.cms.GetPublishedPage(ctx, "about-us")
	require.NoError(t, err)
	assert.NotNil(t, public.PublishedAt)

	require.NoError(t, s.cms.DeletePage(ctx, page.ID, editor.ID))
	_, err = s.cms.GetPublishedPage(ctx, "about-us")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.cms.CreatePage(ctx, editor.ID, dto.CreatePageDTO{Title: "About Us", Status: "PUBLISHED"})
	require.NoError(t, err, "a deleted page frees its slug")

	blog, err := s.cms.CreateBlog(ctx, editor.ID, dto.CreateBlogDTO{
		Title:   "Cutting on action",
		Content: "<p>Hide the cut inside the movement.</p>",
		Tags:    []string{"Editing"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "editor", blog.AuthorName)

	_, err = s.cms.ReadPublishedBlog(ctx, "cutting-on-action")
	assert.ErrorIs(t, err, ErrNotFound)
	_, total, err := s.cms.ListPublishedBlogs(ctx, BlogFilter{}, firstPage)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = s.cms.UpdateBlog(ctx, blog.ID, editor.ID, dto.UpdateBlogDTO{Status: ptr("PUBLISHED")}, nil)
	require.NoError(t, err)

	read, err := s.cms.ReadPublishedBlog(ctx, "cutting-on-action")
	require.NoError(t, err)
	assert.EqualValues(t, 1, read.Views)
	read, err = s.cms.ReadPublishedBlog(ctx, "cutting-on-action")
	require.NoError(t, err)
	assert.EqualValues(t, 2, read.Views)

	list, total, err := s.cms.ListPublishedBlogs(ctx, BlogFilter{Tag: "editing"}, firstPage)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, blog.ID, list[0].ID)

	require.NoError(t, s.cms.DeleteBlog(ctx, blog.ID, editor.ID))
	_, err = s.cms.ReadPublishedBlog(ctx, "cutting-on-action")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.cms.CreateBlog(ctx, editor.ID, dto.CreateBlogDTO{Title: "Cutting on action", Content: "<p>Take two.</p>"}, nil)
	require.NoError(t, err, "a deleted post frees its slug")
}

func TestVisitorStats(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.visitors.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	desktop := VisitMeta{UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)", IP: "203.0.113.7"}
	visits := []struct {
		session, path string
		meta          VisitMeta
	}{
		{"a", "/pricing?utm_source=mail", desktop},
		{"a", "/pricing/", desktop},
		{"a", "/blog", desktop},
		{"b", "https://app.test/pricing#plans", desktop},
		{"crawler", "/pricing", VisitMeta{UserAgent: "Mozilla/5.0 (compatible; Googlebot/2.1)"}},
	}
	for _, v := range visits {
		_, err := s.visitors.Track(ctx, dto.TrackVisitDTO{SessionID: v.session, Path: v.path}, v.meta)
		require.NoError(t, err)
	}
	_, err := s.visitors.Track(ctx, dto.TrackVisitDTO{SessionID: "  ", Path: "/"}, desktop)
	assert.ErrorIs(t, err, ErrInvalidInput)

	stats, err := s.visitors.Stats(ctx, "2026-03-10", "2026-03-10")
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.PageViews)
	assert.EqualValues(t, 2, stats.Uniques)
	assert.Equal(t, []models.DailyVisits{{Day: "2026-03-10", PageViews: 4, Uniques: 2}}, stats.Daily)
	assert.Equal(t, []models.PageCount{{Path: "/pricing", Count: 3}, {Path: "/blog", Count: 1}}, stats.TopPages)
	assert.Equal(t, []models.PageCount{{Path: string(models.DeviceDesktop), Count: 4}}, stats.Devices)
	assert.Nil(t, stats.Realtime)

	empty, err := s.visitors.Stats(ctx, "2026-03-11", "2026-03-12")
	require.NoError(t, err)
	assert.Zero(t, empty.PageViews)
	assert.Empty(t, empty.Daily)

	_, err = s.visitors.Stats(ctx, "2026-03-11", "2026-03-10")
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, total, err := s.visitors.List(ctx, "/pricing", "", firstPage)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total, "listing includes bots")
	assert.Len(t, list, 4)
}
