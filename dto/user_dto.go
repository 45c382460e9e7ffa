package dto

type ClientProfileDTO struct {
	CompanyName string `json:"companyName" binding:"max=160"`
	Website     string `json:"website" binding:"omitempty,url"`
	Industry    string `json:"industry" binding:"max=80"`
	CompanySize string `json:"companySize" binding:"max=40"`
}

type FreelancerProfileDTO struct {
	Title           string   `json:"title" binding:"max=160"`
	Skills          []string `json:"skills" binding:"max=50,dive,max=60"`
	HourlyRate      string   `json:"hourlyRate"`
	ExperienceYears int      `json:"experienceYears" binding:"min=0,max=80"`
	PortfolioLinks  []string `json:"portfolioLinks" binding:"max=20,dive,url"`
	Languages       []string `json:"languages" binding:"max=20"`
	Available       bool     `json:"available"`
	ShowreelURL     string   `json:"showreelUrl" binding:"omitempty,url"`
}

// CreateUserDTO is used by admins; any role may be created.
type CreateUserDTO struct {
	FirstName  string                `json:"firstName" binding:"required,max=80"`
	LastName   string                `json:"lastName" binding:"max=80"`
	Username   string                `json:"username" binding:"max=60"`
	Email      string                `json:"email" binding:"required,email"`
	Password   string                `json:"password" binding:"required,min=8,max=128"`
	Role       string                `json:"role" binding:"required,oneof=ADMIN CLIENT FREELANCER"`
	Phone      string                `json:"phone" binding:"max=32"`
	Country    string                `json:"country" binding:"max=80"`
	City       string                `json:"city" binding:"max=80"`
	Client     *ClientProfileDTO     `json:"client"`
	Freelancer *FreelancerProfileDTO `json:"freelancer"`
}

// UpdateUserDTO has only optional fields and serves both self-service and admin edits.
type UpdateUserDTO struct {
	FirstName  *string               `json:"firstName" binding:"omitempty,max=80"`
	LastName   *string               `json:"lastName" binding:"omitempty,max=80"`
	Username   *string               `json:"username" binding:"omitempty,max=60"`
	Phone      *string               `json:"phone" binding:"omitempty,max=32"`
	Bio        *string               `json:"bio" binding:"omitempty,max=4000"`
	Country    *string               `json:"country" binding:"omitempty,max=80"`
	City       *string               `json:"city" binding:"omitempty,max=80"`
	Timezone   *string               `json:"timezone" binding:"omitempty,max=60"`
	Client     *ClientProfileDTO     `json:"client"`
	Freelancer *FreelancerProfileDTO `json:"freelancer"`
}

// AdminUpdateUserDTO adds the fields only admins may touch.
type AdminUpdateUserDTO struct {
	UpdateUserDTO
	Email         *string `json:"email" binding:"omitempty,email"`
	Role          *string `json:"role" binding:"omitempty,oneof=ADMIN CLIENT FREELANCER"`
	IsActive      *bool   `json:"isActive"`
	EmailVerified *bool   `json:"emailVerified"`
}

type BanUserDTO struct {
	Reason string `json:"reason" binding:"max=500"`
}

type InviteUserDTO struct {
	Email     string `json:"email" binding:"required,email"`
	Role      string `json:"role" binding:"required,oneof=ADMIN CLIENT FREELANCER"`
	FirstName string `json:"firstName" binding:"max=80"`
	LastName  string `json:"lastName" binding:"max=80"`
}

type AcceptInvitationDTO struct {
	Token     string `json:"token" binding:"required"`
	FirstName string `json:"firstName" binding:"max=80"`
	LastName  string `json:"lastName" binding:"max=80"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
}
