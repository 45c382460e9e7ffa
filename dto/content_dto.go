package dto

type CreateTagDTO struct {
	Name string `json:"name" binding:"required,max=60"`
	Type string `json:"type" binding:"required,oneof=SKILL PROJECT BLOG"`
}

type UpdateTagDTO struct {
	Name *string `json:"name" binding:"omitempty,max=60"`
}

type CreateMacroDTO struct {
	Name     string `json:"name" binding:"required,max=120"`
	Category string `json:"category" binding:"max=60"`
	Subject  string `json:"subject" binding:"max=200"`
	Body     string `json:"body" binding:"required,max=20000"`
	IsActive *bool  `json:"isActive"`
}

type UpdateMacroDTO struct {
	Name     *string `json:"name" binding:"omitempty,max=120"`
	Category *string `json:"category" binding:"omitempty,max=60"`
	Subject  *string `json:"subject" binding:"omitempty,max=200"`
	Body     *string `json:"body" binding:"omitempty,max=20000"`
	IsActive *bool   `json:"isActive"`
}

type RenderMacroDTO struct {
	Values map[string]string `json:"values"`
}

type TrackVisitDTO struct {
	SessionID string `json:"sessionId" binding:"required,max=128"`
	Path      string `json:"path" binding:"required,max=2048"`
	Referrer  string `json:"referrer" binding:"max=2048"`
}

type PageSectionDTO struct {
	Key      string `json:"key" binding:"required,max=60"`
	Heading  string `json:"heading" binding:"max=300"`
	Body     string `json:"body" binding:"max=20000"`
	ImageURL string `json:"imageUrl" binding:"omitempty,url"`
	Order    int    `json:"order"`
}

type CreatePageDTO struct {
	Title           string           `json:"title" binding:"required,max=200"`
	Slug            string           `json:"slug" binding:"max=200"`
	Content         string           `json:"content" binding:"max=100000"`
	Sections        []PageSectionDTO `json:"sections" binding:"max=50,dive"`
	MetaTitle       string           `json:"metaTitle" binding:"max=200"`
	MetaDescription string           `json:"metaDescription" binding:"max=500"`
	Status          string           `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED"`
}

type UpdatePageDTO struct {
	Title           *string           `json:"title" binding:"omitempty,max=200"`
	Slug            *string           `json:"slug" binding:"omitempty,max=200"`
	Content         *string           `json:"content" binding:"omitempty,max=100000"`
	Sections        *[]PageSectionDTO `json:"sections" binding:"omitempty,max=50,dive"`
	MetaTitle       *string           `json:"metaTitle" binding:"omitempty,max=200"`
	MetaDescription *string           `json:"metaDescription" binding:"omitempty,max=500"`
	Status          *string           `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED"`
}

// CreateBlogDTO is parsed from the "data" multipart field (JSON); the cover comes as "image".
type CreateBlogDTO struct {
	Title   string   `json:"title" binding:"required,max=200"`
	Slug    string   `json:"slug" binding:"max=200"`
	Excerpt string   `json:"excerpt" binding:"max=1000"`
	Content string   `json:"content" binding:"required,max=200000"`
	Tags    []string `json:"tags" binding:"max=20"`
	Status  string   `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED"`
}

type UpdateBlogDTO struct {
	Title       *string   `json:"title" binding:"omitempty,max=200"`
	Slug        *string   `json:"slug" binding:"omitempty,max=200"`
	Excerpt     *string   `json:"excerpt" binding:"omitempty,max=1000"`
	Content     *string   `json:"content" binding:"omitempty,max=200000"`
	Tags        *[]string `json:"tags" binding:"omitempty,max=20"`
	Status      *string   `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED"`
	RemoveCover bool      `json:"removeCover"`
}

type CompressVideoDTO struct {
	SourceObject string `json:"sourceObject" binding:"required"`
}
