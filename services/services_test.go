package services

import (
	"errors"
	"testing"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestErrorHelpersWrapSentinels(t *testing.T) {
	assert.True(t, errors.Is(notFound("project"), ErrNotFound))
	assert.EqualError(t, notFound("project"), "project not found")
	assert.True(t, errors.Is(conflict("x"), ErrConflict))
	assert.True(t, errors.Is(forbidden("x"), ErrForbidden))
	assert.True(t, errors.Is(invalid("bad %d", 1), ErrInvalidInput))
	assert.EqualError(t, invalid("bad %d", 1), "invalid input: bad 1")
	assert.True(t, errors.Is(badTransition("x"), ErrInvalidTransition))
	assert.True(t, errors.Is(errInvalidCredentials, ErrUnauthorized))
}

func TestNotDeleted(t *testing.T) {
	f := notDeleted(bson.M{"role": "ADMIN"})
	assert.Equal(t, bson.M{"$ne": true}, f["isDeleted"])
	assert.Equal(t, "ADMIN", f["role"])
}

func TestSanitizeHTML(t *testing.T) {
	out := sanitizeHTML(`<p onclick="x()">Hi <b>there</b></p><script>alert(1)</script>`)
	assert.Equal(t, `<p>Hi <b>there</b></p>`, out)
}

func TestTagDelta(t *testing.T) {
	added, removed := tagDelta([]string{"go", "video"}, []string{"video", "editing"})
	assert.Equal(t, []string{"editing"}, added)
	assert.Equal(t, []string{"go"}, removed)

	added, removed = tagDelta(nil, nil)
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestBuildUser(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	u, err := buildUser(NewAccount{
		FirstName: " Ana ",
		Email:     " Ana@Example.COM ",
		Password:  "supersecret",
		Role:      models.RoleFreelancer,
		Freelancer: &dto.FreelancerProfileDTO{
			Skills:     []string{"Color Grading", "color grading", " After  Effects "},
			HourlyRate: "45",
		},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "Ana", u.FirstName)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "supersecret", u.PasswordHash)
	require.NotNil(t, u.Freelancer)
	assert.Equal(t, []string{"color grading", "after effects"}, u.Freelancer.Skills)
	assert.Equal(t, "45.00", u.Freelancer.HourlyRate)
	assert.Nil(t, u.Client)

	_, err = buildUser(NewAccount{Email: "a@b.test", Password: "short", Role: models.RoleClient}, now)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = buildUser(NewAccount{Email: "a@b.test", Password: "longenough", Role: "OWNER"}, now)
	assert.ErrorIs(t, err, ErrInvalidInput)

	c, err := buildUser(NewAccount{Email: "c@b.test", Password: "longenough", Role: models.RoleClient}, now)
	require.NoError(t, err)
	assert.NotNil(t, c.Client)
}

func TestBuildUserFilter(t *testing.T) {
	f, err := buildUserFilter(UserFilter{Role: "CLIENT", Q: "a.b", Status: "banned", Skill: " Motion Design "})
	require.NoError(t, err)
	assert.Equal(t, "CLIENT", f["role"])
	assert.Equal(t, true, f["isBanned"])
	assert.Equal(t, bson.M{"$ne": true}, f["isDeleted"])
	assert.Equal(t, "motion design", f["freelancer.skills"])
	or := f["$or"].(bson.A)
	assert.Len(t, or, 4)
	assert.Equal(t, bson.M{"firstName": bson.M{"$regex": `a\.b`, "$options": "i"}}, or[0])

	f, err = buildUserFilter(UserFilter{Status: "deleted"})
	require.NoError(t, err)
	assert.Equal(t, true, f["isDeleted"])

	_, err = buildUserFilter(UserFilter{Status: "sleeping"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = buildUserFilter(UserFilter{Role: "ROOT"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProfileUpdate(t *testing.T) {
	bio := " Editor "
	set, err := profileUpdate(dto.UpdateUserDTO{Bio: &bio}, models.RoleClient)
	require.NoError(t, err)
	assert.Equal(t, bson.M{"bio": "Editor"}, set)

	empty := "  "
	_, err = profileUpdate(dto.UpdateUserDTO{FirstName: &empty}, models.RoleClient)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = profileUpdate(dto.UpdateUserDTO{Freelancer: &dto.FreelancerProfileDTO{}}, models.RoleClient)
	assert.ErrorIs(t, err, ErrInvalidInput)

	set, err = profileUpdate(dto.UpdateUserDTO{Freelancer: &dto.FreelancerProfileDTO{Skills: []string{"Sound"}}}, models.RoleFreelancer)
	require.NoError(t, err)
	assert.Equal(t, []string{"sound"}, set["freelancer"].(*models.FreelancerProfile).Skills)

	_, err = profileUpdate(dto.UpdateUserDTO{Freelancer: &dto.FreelancerProfileDTO{HourlyRate: "-3"}}, models.RoleFreelancer)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuildProjectFilter(t *testing.T) {
	f, err := buildProjectFilter(ProjectFilter{
		Status:    "OPEN",
		Tag:       "Wedding",
		BudgetMin: "100",
		BudgetMax: "500.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "OPEN", f["status"])
	assert.Equal(t, "wedding", f["tags"])
	assert.Equal(t, bson.M{"$gte": 100.0}, f["budgetMaxValue"])
	assert.Equal(t, bson.M{"$lte": 500.5}, f["budgetMinValue"])

	_, err = buildProjectFilter(ProjectFilter{Status: "DONE"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = buildProjectFilter(ProjectFilter{CategoryID: "nope"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = buildProjectFilter(ProjectFilter{BudgetMin: "abc"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProjectSort(t *testing.T) {
	assert.Equal(t, "budgetMinValue", projectSort("budget_asc")[0].Key)
	assert.Equal(t, "isFeatured", projectSort("")[0].Key)
	assert.Equal(t, "isFeatured", projectSort("whatever")[0].Key)
}

func TestProjectUpdateSet(t *testing.T) {
	current := &models.Project{BudgetMin: "100.00", BudgetMax: "200.00"}

	hi := "150"
	set, err := projectUpdateSet(current, dto.UpdateProjectDTO{BudgetMax: &hi})
	require.NoError(t, err)
	assert.Equal(t, "100.00", set["budgetMin"])
	assert.Equal(t, "150.00", set["budgetMax"])
	assert.Equal(t, 150.0, set["budgetMaxValue"])

	low := "50"
	_, err = projectUpdateSet(current, dto.UpdateProjectDTO{BudgetMax: &low})
	assert.ErrorIs(t, err, ErrInvalidInput)

	title := "Color grade a short film"
	set, err = projectUpdateSet(current, dto.UpdateProjectDTO{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "color-grade-a-short-film", set["slug"])

	past := time.Now().Add(-time.Hour)
	_, err = projectUpdateSet(current, dto.UpdateProjectDTO{Deadline: &past})
	assert.ErrorIs(t, err, ErrInvalidInput)

	script := "<script>x</script>"
	_, err = projectUpdateSet(current, dto.UpdateProjectDTO{Description: &script})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestKeepAttachments(t *testing.T) {
	current := []models.Attachment{
		{URL: "https://cdn/a", ObjectName: "projects/a"},
		{URL: "https://cdn/b", ObjectName: "projects/b"},
	}
	kept, dropped := keepAttachments(current, []string{"https://cdn/a", "https://elsewhere/x"})
	require.Len(t, kept, 1)
	assert.Equal(t, "https://cdn/b", kept[0].URL)
	assert.Equal(t, []string{"projects/a"}, dropped)

	kept, dropped = keepAttachments(current, nil)
	assert.Len(t, kept, 2)
	assert.Empty(t, dropped)
}

func TestCounterpart(t *testing.T) {
	client, freelancer, stranger := bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID()
	p := &models.Project{ClientID: client, FreelancerID: &freelancer}

	got, err := counterpart(p, client)
	require.NoError(t, err)
	assert.Equal(t, freelancer, got)

	got, err = counterpart(p, freelancer)
	require.NoError(t, err)
	assert.Equal(t, client, got)

	_, err = counterpart(p, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = counterpart(&models.Project{ClientID: client}, client)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSummarize(t *testing.T) {
	s := summarize([]ratingBucket{{Rating: 5, Count: 2}, {Rating: 4, Count: 1}})
	assert.Equal(t, int64(3), s.Count)
	assert.Equal(t, 4.67, s.Average)
	assert.Equal(t, int64(2), s.Histogram[5])
	assert.Equal(t, int64(0), s.Histogram[1])

	empty := summarize(nil)
	assert.Zero(t, empty.Average)
	assert.Len(t, empty.Histogram, 5)
}

func TestMacroTemplates(t *testing.T) {
	vars := ExtractVariables("Hi {{ name }}", "Your project {{project.title}} is {{status}}. Bye {{name}}")
	assert.Equal(t, []string{"name", "project.title", "status"}, vars)

	out, missing := RenderTemplate("Hi {{name}}, {{status}}", map[string]string{"name": "Ana"})
	assert.Equal(t, "Hi Ana, {{status}}", out)
	assert.Equal(t, []string{"status"}, missing)

	out, missing = RenderTemplate("{{ 1bad }} stays", nil)
	assert.Equal(t, "{{ 1bad }} stays", out)
	assert.Empty(t, missing)
}

func TestDetectDevice(t *testing.T) {
	cases := []struct {
		ua   string
		want models.Device
	}{
		{ua: "", want: models.DeviceDesktop},
		{ua: "Mozilla/5.0 (Windows NT 10.0; Win64)", want: models.DeviceDesktop},
		{ua: "Mozilla/5.0 (iPhone; CPU iPhone OS 17)", want: models.DeviceMobile},
		{ua: "Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile Safari", want: models.DeviceMobile},
		{ua: "Mozilla/5.0 (Linux; Android 13; SM-X200) Safari", want: models.DeviceTablet},
		{ua: "Mozilla/5.0 (iPad; CPU OS 16_0)", want: models.DeviceTablet},
		{ua: "Googlebot/2.1 (+http://www.google.com/bot.html)", want: models.DeviceBot},
		{ua: "curl/8.4.0", want: models.DeviceBot},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectDevice(tc.ua), tc.ua)
	}
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/projects", normalizePath("https://mmv.test/projects/?page=2#top"))
	assert.Equal(t, "/blog/post", normalizePath("blog/post"))
	assert.Equal(t, "/", normalizePath("/"))
	assert.Equal(t, "/a", normalizePath("/a?x=1"))
}

func TestParseRange(t *testing.T) {
	now := time.Date(2026, 5, 20, 15, 4, 0, 0, time.UTC)

	from, to, err := ParseRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 21, 0, 0, 0, 0, time.UTC), to)
	assert.Equal(t, time.Date(2026, 4, 21, 0, 0, 0, 0, time.UTC), from)

	from, to, err = ParseRange("2026-05-01", "2026-05-01", now)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, to.Sub(from))

	_, _, err = ParseRange("2026-05-02", "2026-05-01", now)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = ParseRange("2024-01-01", "2026-05-01", now)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = ParseRange("01/05/2026", "", now)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStatsPipelineExcludesBots(t *testing.T) {
	p := statsPipeline(time.Unix(0, 0), time.Unix(100, 0))
	require.Len(t, p, 2)
	match := p[0][0].Value.(bson.M)
	assert.Equal(t, bson.M{"$ne": models.DeviceBot}, match["device"])
	facets := p[1][0].Value.(bson.D)
	keys := make([]string, 0, len(facets))
	for _, f := range facets {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"totals", "daily", "topPages", "devices"}, keys)
}

func TestContentHelpers(t *testing.T) {
	st, err := contentStatus("")
	require.NoError(t, err)
	assert.Equal(t, models.ContentDraft, st)
	_, err = contentStatus("ARCHIVED")
	assert.ErrorIs(t, err, ErrInvalidInput)

	slug, err := slugOr("", "Über uns!")
	require.NoError(t, err)
	assert.Equal(t, "uber-uns", slug)
	_, err = slugOr("!!!", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	sections := pageSections([]dto.PageSectionDTO{
		{Key: "b", Order: 2, Body: "<em>two</em><iframe></iframe>"},
		{Key: "a", Order: 1},
	})
	assert.Equal(t, "a", sections[0].Key)
	assert.Equal(t, "<em>two</em>", sections[1].Body)

	now := time.Now()
	set := bson.M{}
	publishSet(set, models.ContentPublished, nil, now)
	assert.Equal(t, now, set["publishedAt"])

	set = bson.M{}
	publishSet(set, models.ContentPublished, &now, now)
	_, ok := set["publishedAt"]
	assert.False(t, ok)
}

func TestLoginAttemptsKey(t *testing.T) {
	assert.Equal(t, "login:fail:a@b.test:10.0.0.1", loginAttemptsKey(" A@B.test", "10.0.0.1"))
}

func TestActor(t *testing.T) {
	assert.True(t, Actor{Role: models.RoleAdmin}.IsAdmin())
	assert.False(t, Actor{Role: models.RoleClient}.IsAdmin())
}

func TestSum(t *testing.T) {
	assert.Equal(t, int64(6), sum(map[string]int64{"a": 1, "b": 2, "c": 3}))
}
