package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleClient     Role = "CLIENT"
	RoleFreelancer Role = "FREELANCER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleFreelancer:
		return true
	}
	return false
}

type ClientProfile struct {
	CompanyName string `bson:"companyName,omitempty" json:"companyName,omitempty"`
	Website     string `bson:"website,omitempty" json:"website,omitempty"`
	Industry    string `bson:"industry,omitempty" json:"industry,omitempty"`
	CompanySize string `bson:"companySize,omitempty" json:"companySize,omitempty"`
}

type FreelancerProfile struct {
	Title           string   `bson:"title,omitempty" json:"title,omitempty"`
	Skills          []string `bson:"skills" json:"skills"`
	HourlyRate      string   `bson:"hourlyRate,omitempty" json:"hourlyRate,omitempty"`
	ExperienceYears int      `bson:"experienceYears" json:"experienceYears"`
	PortfolioLinks  []string `bson:"portfolioLinks,omitempty" json:"portfolioLinks,omitempty"`
	Languages       []string `bson:"languages,omitempty" json:"languages,omitempty"`
	Available       bool     `bson:"available" json:"available"`
	ShowreelURL     string   `bson:"showreelUrl,omitempty" json:"showreelUrl,omitempty"`
}

type User struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName      string        `bson:"firstName" json:"firstName"`
	LastName       string        `bson:"lastName" json:"lastName"`
	Username       string        `bson:"username,omitempty" json:"username,omitempty"`
	Email          string        `bson:"email" json:"email"`
	Phone          string        `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash   string        `bson:"passwordHash" json:"-"` // never expose
	Role           Role          `bson:"role" json:"role"`
	IsActive       bool          `bson:"isActive" json:"isActive"`
	IsBanned       bool          `bson:"isBanned" json:"isBanned"`
	BanReason      string        `bson:"banReason,omitempty" json:"banReason,omitempty"`
	EmailVerified  bool          `bson:"emailVerified" json:"emailVerified"`
	ProfilePicture string        `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Bio            string        `bson:"bio,omitempty" json:"bio,omitempty"`
	Country        string        `bson:"country,omitempty" json:"country,omitempty"`
	City           string        `bson:"city,omitempty" json:"city,omitempty"`
	Timezone       string        `bson:"timezone,omitempty" json:"timezone,omitempty"`

	Client     *ClientProfile     `bson:"client,omitempty" json:"client,omitempty"`
	Freelancer *FreelancerProfile `bson:"freelancer,omitempty" json:"freelancer,omitempty"`

	TOTPSecret  string `bson:"totpSecret,omitempty" json:"-"`
	TOTPEnabled bool   `bson:"totpEnabled" json:"totpEnabled"`

	LastLoginAt *time.Time     `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	CreatedBy   *bson.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	SoftDelete  `bson:",inline"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CanSignIn reports whether the account may obtain tokens.
func (u *User) CanSignIn() bool {
	return u.IsActive && !u.IsBanned && !u.IsDeleted
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type RefreshToken struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	UserID     bson.ObjectID `bson:"userId"`
	TokenHash  string        `bson:"tokenHash"`
	ExpiresAt  time.Time     `bson:"expiresAt"`
	CreatedAt  time.Time     `bson:"createdAt"`
	RevokedAt  *time.Time    `bson:"revokedAt,omitempty"`
	ReplacedBy *string       `bson:"replacedBy,omitempty"`
}

type PasswordReset struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    bson.ObjectID `bson:"userId"`
	TokenHash string        `bson:"tokenHash"`
	ExpiresAt time.Time     `bson:"expiresAt"`
	UsedAt    *time.Time    `bson:"usedAt,omitempty"`
	CreatedAt time.Time     `bson:"createdAt"`
}
