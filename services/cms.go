package services

import (
	"context"
	"sort"
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

// CMSService manages static pages and blog posts. All stored HTML is sanitised.
type CMSService struct {
	pages  *mongo.Collection
	blogs  *mongo.Collection
	users  *UserService
	tags   *TagService
	bucket storage.Bucket
	logger *zap.Logger
}

func NewCMSService(db *database.DB, users *UserService, tags *TagService, bucket storage.Bucket, logger *zap.Logger) *CMSService {
	return &CMSService{
		pages:  db.Collection(database.PagesCollection),
		blogs:  db.Collection(database.BlogsCollection),
		users:  users,
		tags:   tags,
		bucket: bucket,
		logger: logger,
	}
}

func contentStatus(s string) (models.ContentStatus, error) {
	if s == "" {
		return models.ContentDraft, nil
	}
	st := models.ContentStatus(s)
	if !st.Valid() {
		return "", invalid("unknown status %q", s)
	}
	return st, nil
}

// slugOr returns the slug of explicit, or of fallback when explicit is empty.
func slugOr(explicit, fallback string) (string, error) {
	src := strings.TrimSpace(explicit)
	if src == "" {
		src = fallback
	}
	slug := utils.GenerateSlug(src)
	if slug == "" {
		return "", invalid("slug cannot be empty")
	}
	return slug, nil
}

func pageSections(in []dto.PageSectionDTO) []models.PageSection {
	out := make([]models.PageSection, 0, len(in))
	for _, s := range in {
		out = append(out, models.PageSection{
			Key:      strings.TrimSpace(s.Key),
			Heading:  strings.TrimSpace(s.Heading),
			Body:     sanitizeHTML(s.Body),
			ImageURL: strings.TrimSpace(s.ImageURL),
			Order:    s.Order,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// publishSet adds publishedAt the first time content becomes PUBLISHED.
func publishSet(set bson.M, status models.ContentStatus, wasPublished *time.Time, now time.Time) {
	set["status"] = status
	if status == models.ContentPublished && wasPublished == nil {
		set["publishedAt"] = now
	}
}

func (s *CMSService) CreatePage(ctx context.Context, actor bson.ObjectID, in dto.CreatePageDTO) (*models.Page, error) {
	status, err := contentStatus(in.Status)
	if err != nil {
		return nil, err
	}
	slug, err := slugOr(in.Slug, in.Title)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	page := models.Page{
		Title:           strings.TrimSpace(in.Title),
		Slug:            slug,
		Content:         sanitizeHTML(in.Content),
		Sections:        pageSections(in.Sections),
		MetaTitle:       strings.TrimSpace(in.MetaTitle),
		MetaDescription: strings.TrimSpace(in.MetaDescription),
		Status:          status,
		CreatedBy:       actor,
		UpdatedBy:       actor,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if status == models.ContentPublished {
		page.PublishedAt = &now
	}
	res, err := s.pages.InsertOne(ctx, page)
	if err != nil {
		if utils.IsDuplicateKey(err) {
			return nil, conflict("slug already exists")
		}
		return nil, err
	}
	page.ID = res.InsertedID.(bson.ObjectID)
	return &page, nil
}

func (s *CMSService) UpdatePage(ctx context.Context, id, actor bson.ObjectID, in dto.UpdatePageDTO) (*models.Page, error) {
	current, err := findOne[models.Page](ctx, s.pages, notDeleted(bson.M{"_id": id}), "page")
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	set := bson.M{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, invalid("title cannot be empty")
		}
		set["title"] = t
	}
	if in.Slug != nil {
		slug, err := slugOr(*in.Slug, "")
		if err != nil {
			return nil, err
		}
		set["slug"] = slug
	}
	if in.Content != nil {
		set["content"] = sanitizeHTML(*in.Content)
	}
	if in.Sections != nil {
		set["sections"] = pageSections(*in.Sections)
	}
	if in.MetaTitle != nil {
		set["metaTitle"] = strings.TrimSpace(*in.MetaTitle)
	}
	if in.MetaDescription != nil {
		set["metaDescription"] = strings.TrimSpace(*in.MetaDescription)
	}
	if in.Status != nil {
		st, err := contentStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		publishSet(set, st, current.PublishedAt, now)
	}
	if len(set) == 0 {
		return nil, invalid("no updates provided")
	}
	set["updatedBy"] = actor
	set["updatedAt"] = now

	out, err := updateAndReturn[models.Page](ctx, s.pages, notDeleted(bson.M{"_id": id}), bson.M{"$set": set}, "page")
	if err != nil && utils.IsDuplicateKey(err) {
		return nil, conflict("slug already exists")
	}
	return out, err
}

func (s *CMSService) GetPage(ctx context.Context, id bson.ObjectID) (*models.Page, error) {
	return findOne[models.Page](ctx, s.pages, notDeleted(bson.M{"_id": id}), "page")
}

func (s *CMSService) GetPublishedPage(ctx context.Context, slug string) (*models.Page, error) {
	return findOne[models.Page](ctx, s.pages, notDeleted(bson.M{
		"slug":   slug,
		"status": models.ContentPublished,
	}), "page")
}

func (s *CMSService) ListPages(ctx context.Context, status string, p utils.Pagination) ([]models.Page, int64, error) {
	filter := notDeleted(bson.M{})
	if status != "" {
		filter["status"] = status
	}
	return findPage[models.Page](ctx, s.pages, filter, bson.D{{Key: "title", Value: 1}}, p)
}

func (s *CMSService) DeletePage(ctx context.Context, id, actor bson.ObjectID) error {
	return softDelete(ctx, s.pages, id, actor, "page")
}

func (s *CMSService) CreateBlog(ctx context.Context, actor bson.ObjectID, in dto.CreateBlogDTO, cover *Upload) (*models.Blog, error) {
	status, err := contentStatus(in.Status)
	if err != nil {
		return nil, err
	}
	slug, err := slugOr(in.Slug, in.Title)
	if err != nil {
		return nil, err
	}
	author, err := s.users.GetActive(ctx, actor)
	if err != nil {
		return nil, err
	}
	content := sanitizeHTML(in.Content)
	if strings.TrimSpace(content) == "" {
		return nil, invalid("content cannot be empty")
	}

	now := time.Now().UTC()
	blog := models.Blog{
		Title:      strings.TrimSpace(in.Title),
		Slug:       slug,
		Excerpt:    strings.TrimSpace(in.Excerpt),
		Content:    content,
		Tags:       utils.NormalizeLabels(in.Tags),
		AuthorID:   actor,
		AuthorName: author.FullName(),
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if status == models.ContentPublished {
		blog.PublishedAt = &now
	}

	if cover != nil {
		obj, err := storage.UploadFile(ctx, s.bucket, "blogs", cover.File, cover.ContentType)
		if err != nil {
			return nil, err
		}
		blog.CoverImageURL, blog.CoverObject = obj.URL, obj.ObjectName
	}

	res, err := s.blogs.InsertOne(ctx, blog)
	if err != nil {
		if blog.CoverObject != "" {
			_ = storage.DeleteObjects(ctx, s.bucket, []string{blog.CoverObject})
		}
		if utils.IsDuplicateKey(err) {
			return nil, conflict("slug already exists")
		}
		return nil, err
	}
	blog.ID = res.InsertedID.(bson.ObjectID)

	if err := s.tags.Track(ctx, models.TagTypeBlog, nil, blog.Tags); err != nil {
		s.logger.Warn("blog tags not tracked", zap.Error(err))
	}
	return &blog, nil
}

func (s *CMSService) UpdateBlog(ctx context.Context, id, actor bson.ObjectID, in dto.UpdateBlogDTO, cover *Upload) (*models.Blog, error) {
	current, err := s.GetBlog(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	set := bson.M{}
	unset := bson.M{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, invalid("title cannot be empty")
		}
		set["title"] = t
	}
	if in.Slug != nil {
		slug, err := slugOr(*in.Slug, "")
		if err != nil {
			return nil, err
		}
		set["slug"] = slug
	}
	if in.Excerpt != nil {
		set["excerpt"] = strings.TrimSpace(*in.Excerpt)
	}
	if in.Content != nil {
		c := sanitizeHTML(*in.Content)
		if strings.TrimSpace(c) == "" {
			return nil, invalid("content cannot be empty")
		}
		set["content"] = c
	}
	if in.Tags != nil {
		set["tags"] = utils.NormalizeLabels(*in.Tags)
	}
	if in.Status != nil {
		st, err := contentStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		publishSet(set, st, current.PublishedAt, now)
	}

	var uploaded string
	switch {
	case cover != nil:
		obj, err := storage.UploadFile(ctx, s.bucket, "blogs", cover.File, cover.ContentType)
		if err != nil {
			return nil, err
		}
		uploaded = obj.ObjectName
		set["coverImageUrl"], set["coverObject"] = obj.URL, obj.ObjectName
	case in.RemoveCover:
		unset["coverImageUrl"], unset["coverObject"] = "", ""
	}

	if len(set) == 0 && len(unset) == 0 {
		return nil, invalid("no updates provided")
	}
	set["updatedAt"] = now
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	out, err := updateAndReturn[models.Blog](ctx, s.blogs, notDeleted(bson.M{"_id": id}), update, "blog")
	if err != nil {
		if uploaded != "" {
			_ = storage.DeleteObjects(ctx, s.bucket, []string{uploaded})
		}
		if utils.IsDuplicateKey(err) {
			return nil, conflict("slug already exists")
		}
		return nil, err
	}

	if (uploaded != "" || in.RemoveCover) && current.CoverObject != "" {
		if err := storage.DeleteObjects(ctx, s.bucket, []string{current.CoverObject}); err != nil {
			s.logger.Warn("old blog cover not deleted", zap.Error(err), zap.String("blog_id", id.Hex()))
		}
	}
	if err := s.tags.Track(ctx, models.TagTypeBlog, current.Tags, out.Tags); err != nil {
		s.logger.Warn("blog tags not tracked", zap.Error(err))
	}
	return out, nil
}

func (s *CMSService) GetBlog(ctx context.Context, id bson.ObjectID) (*models.Blog, error) {
	return findOne[models.Blog](ctx, s.blogs, notDeleted(bson.M{"_id": id}), "blog")
}

// ReadPublishedBlog returns a published post by slug and counts the view.
func (s *CMSService) ReadPublishedBlog(ctx context.Context, slug string) (*models.Blog, error) {
	return updateAndReturn[models.Blog](ctx, s.blogs,
		notDeleted(bson.M{"slug": slug, "status": models.ContentPublished}),
		bson.M{"$inc": bson.M{"views": 1}}, "blog")
}

type BlogFilter struct {
	Q      string
	Tag    string
	Status string
}

func (s *CMSService) ListBlogs(ctx context.Context, f BlogFilter, p utils.Pagination) ([]models.Blog, int64, error) {
	filter := notDeleted(bson.M{})
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if q := strings.TrimSpace(f.Q); q != "" {
		rx := bson.M{"$regex": regexQuote(q), "$options": "i"}
		filter["$or"] = bson.A{bson.M{"title": rx}, bson.M{"excerpt": rx}}
	}
	if tag := utils.NormalizeLabels([]string{f.Tag}); len(tag) > 0 {
		filter["tags"] = tag[0]
	}
	return findPage[models.Blog](ctx, s.blogs, filter,
		bson.D{{Key: "publishedAt", Value: -1}, {Key: "createdAt", Value: -1}}, p)
}

func (s *CMSService) ListPublishedBlogs(ctx context.Context, f BlogFilter, p utils.Pagination) ([]models.Blog, int64, error) {
	f.Status = string(models.ContentPublished)
	return s.ListBlogs(ctx, f, p)
}

func (s *CMSService) DeleteBlog(ctx context.Context, id, actor bson.ObjectID) error {
	current, err := s.GetBlog(ctx, id)
	if err != nil {
		return err
	}
	if err := softDelete(ctx, s.blogs, id, actor, "blog"); err != nil {
		return err
	}
	if err := s.tags.Track(ctx, models.TagTypeBlog, current.Tags, nil); err != nil {
		s.logger.Warn("blog tags not tracked", zap.Error(err))
	}
	return nil
}
