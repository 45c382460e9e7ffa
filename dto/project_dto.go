package dto

import "time"

// CreateProjectDTO is parsed from the "data" multipart field (JSON); files come as "attachments".
type CreateProjectDTO struct {
	Title       string     `json:"title" binding:"required,min=5,max=200"`
	Description string     `json:"description" binding:"required,min=20,max=20000"`
	CategoryID  string     `json:"categoryId"`
	Type        string     `json:"type" binding:"required,oneof=FIXED HOURLY"`
	BudgetMin   string     `json:"budgetMin" binding:"required"`
	BudgetMax   string     `json:"budgetMax"`
	Currency    string     `json:"currency" binding:"omitempty,len=3,alpha"`
	Deadline    *time.Time `json:"deadline"`
	Skills      []string   `json:"skills" binding:"max=30"`
	Tags        []string   `json:"tags" binding:"max=30"`
	VideoURL    string     `json:"videoUrl" binding:"omitempty,url"`
	ClientID    string     `json:"clientId"` // admins may create on behalf of a client
}

type UpdateProjectDTO struct {
	Title              *string    `json:"title" binding:"omitempty,min=5,max=200"`
	Description        *string    `json:"description" binding:"omitempty,min=20,max=20000"`
	CategoryID         *string    `json:"categoryId"`
	Type               *string    `json:"type" binding:"omitempty,oneof=FIXED HOURLY"`
	BudgetMin          *string    `json:"budgetMin"`
	BudgetMax          *string    `json:"budgetMax"`
	Currency           *string    `json:"currency" binding:"omitempty,len=3,alpha"`
	Deadline           *time.Time `json:"deadline"`
	Skills             *[]string  `json:"skills" binding:"omitempty,max=30"`
	Tags               *[]string  `json:"tags" binding:"omitempty,max=30"`
	VideoURL           *string    `json:"videoUrl" binding:"omitempty,url"`
	IsFeatured         *bool      `json:"isFeatured"`
	RemovedAttachments []string   `json:"removedAttachments,omitempty"`
}

type UpdateProjectStatusDTO struct {
	Status string `json:"status" binding:"required"`
}

type CreateApplicationDTO struct {
	CoverLetter   string `json:"coverLetter" binding:"required,min=20,max=8000"`
	BidAmount     string `json:"bidAmount" binding:"required"`
	EstimatedDays int    `json:"estimatedDays" binding:"required,min=1,max=3650"`
}

type UpdateApplicationStatusDTO struct {
	Status string `json:"status" binding:"required,oneof=SHORTLISTED REJECTED"`
}

type CreateSubmissionDTO struct {
	Message string   `json:"message" binding:"required,min=1,max=8000"`
	Links   []string `json:"links" binding:"max=20,dive,url"`
}

type ReviewSubmissionDTO struct {
	Note string `json:"note" binding:"max=4000"`
}

type CreateReviewDTO struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=4000"`
}
