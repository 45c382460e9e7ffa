package dto

// CreateCategoryDTO is parsed from the "data" multipart field (JSON)
type CreateCategoryDTO struct {
	Name        string `json:"name" binding:"required,max=120"`
	Slug        string `json:"slug"` // auto-generated from Name if empty
	Description string `json:"description" binding:"max=2000"`
	IsActive    bool   `json:"isActive"`
}

// UpdateCategoryDTO: all fields are optional pointers
type UpdateCategoryDTO struct {
	Name        *string `json:"name" binding:"omitempty,max=120"`
	Slug        *string `json:"slug"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	IsActive    *bool   `json:"isActive"`
}
