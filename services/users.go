package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/database"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/storage"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

type UserService struct {
	users  *mongo.Collection
	bucket storage.Bucket
	tags   *TagService
	logger *zap.Logger
}

func NewUserService(db *database.DB, bucket storage.Bucket, tags *TagService, logger *zap.Logger) *UserService {
	return &UserService{
		users:  db.Collection(database.UsersCollection),
		bucket: bucket,
		tags:   tags,
		logger: logger,
	}
}

// NewAccount is the common input of admin creation, public registration and invitation acceptance.
type NewAccount struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
	Role      models.Role
	Phone     string
	Country   string
	City      string
	CreatedBy *bson.ObjectID

	Client     *dto.ClientProfileDTO
	Freelancer *dto.FreelancerProfileDTO
}

// buildUser validates the account input and returns a document ready to insert.
func buildUser(in NewAccount, now time.Time) (*models.User, error) {
	email := utils.NormalizeEmail(in.Email)
	if email == "" {
		return nil, invalid("email is required")
	}
	if !in.Role.Valid() {
		return nil, invalid("unknown role %q", in.Role)
	}
	if len(in.Password) < 8 {
		return nil, invalid("password must be at least 8 characters")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Username:     strings.TrimSpace(in.Username),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
		Country:      strings.TrimSpace(in.Country),
		City:         strings.TrimSpace(in.City),
		CreatedBy:    in.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	switch in.Role {
	case models.RoleClient:
		u.Client = clientProfile(in.Client)
	case models.RoleFreelancer:
		fp, err := freelancerProfile(in.Freelancer)
		if err != nil {
			return nil, err
		}
		u.Freelancer = fp
	}
	return u, nil
}

func clientProfile(in *dto.ClientProfileDTO) *models.ClientProfile {
	if in == nil {
		return &models.ClientProfile{}
	}
	return &models.ClientProfile{
		CompanyName: strings.TrimSpace(in.CompanyName),
		Website:     strings.TrimSpace(in.Website),
		Industry:    strings.TrimSpace(in.Industry),
		CompanySize: strings.TrimSpace(in.CompanySize),
	}
}

func freelancerProfile(in *dto.FreelancerProfileDTO) (*models.FreelancerProfile, error) {
	if in == nil {
		return &models.FreelancerProfile{Skills: []string{}, Available: true}, nil
	}
	fp := &models.FreelancerProfile{
		Title:           strings.TrimSpace(in.Title),
		Skills:          utils.NormalizeLabels(in.Skills),
		ExperienceYears: in.ExperienceYears,
		PortfolioLinks:  in.PortfolioLinks,
		Languages:       in.Languages,
		Available:       in.Available,
		ShowreelURL:     strings.TrimSpace(in.ShowreelURL),
	}
	if strings.TrimSpace(in.HourlyRate) != "" {
		rate, err := utils.ParseAmount(in.HourlyRate)
		if err != nil {
			return nil, invalid("hourlyRate: %v", err)
		}
		fp.HourlyRate = rate
	}
	return fp, nil
}

func (s *UserService) insert(ctx context.Context, u *models.User) error {
	res, err := s.users.InsertOne(ctx, u)
	if err != nil {
		if utils.IsDuplicateKey(err) {
			return conflict("email already registered")
		}
		return err
	}
	u.ID = res.InsertedID.(bson.ObjectID)

	if u.Freelancer != nil {
		if err := s.tags.Track(ctx, models.TagTypeSkill, nil, u.Freelancer.Skills); err != nil {
			s.logger.Warn("skill tags not tracked", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		}
	}
	return nil
}

// Create registers a new account. The caller decides which roles are allowed.
func (s *UserService) Create(ctx context.Context, in NewAccount) (*models.User, error) {
	u, err := buildUser(in, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{"email": utils.NormalizeEmail(email)})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get returns any user including deleted ones; admins need to see those.
func (s *UserService) Get(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"_id": id}, "user")
}

func (s *UserService) GetActive(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, s.users, notDeleted(bson.M{"_id": id}), "user")
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, notDeleted(bson.M{"email": utils.NormalizeEmail(email)}), "user")
}

type UserFilter struct {
	Role   string
	Q      string
	Status string // active | banned | deleted | inactive
	Skill  string
}

func buildUserFilter(f UserFilter) (bson.M, error) {
	filter := bson.M{}
	if f.Role != "" {
		if !models.Role(f.Role).Valid() {
			return nil, invalid("unknown role %q", f.Role)
		}
		filter["role"] = f.Role
	}

	switch f.Status {
	case "":
		notDeleted(filter)
	case "active":
		notDeleted(filter)
		filter["isActive"] = true
		filter["isBanned"] = false
	case "inactive":
		notDeleted(filter)
		filter["isActive"] = false
	case "banned":
		notDeleted(filter)
		filter["isBanned"] = true
	case "deleted":
		filter["isDeleted"] = true
	default:
		return nil, invalid("unknown status %q", f.Status)
	}

	if q := strings.TrimSpace(f.Q); q != "" {
		rx := bson.M{"$regex": regexQuote(q), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"firstName": rx},
			bson.M{"lastName": rx},
			bson.M{"email": rx},
			bson.M{"username": rx},
		}
	}
	if skill := utils.NormalizeLabels([]string{f.Skill}); len(skill) > 0 {
		filter["freelancer.skills"] = skill[0]
	}
	return filter, nil
}

func (s *UserService) List(ctx context.Context, f UserFilter, p utils.Pagination) ([]models.User, int64, error) {
	filter, err := buildUserFilter(f)
	if err != nil {
		return nil, 0, err
	}
	return findPage[models.User](ctx, s.users, filter, bson.D{{Key: "createdAt", Value: -1}}, p)
}

// ListFreelancers is the public directory: active, non-banned freelancers only.
func (s *UserService) ListFreelancers(ctx context.Context, q, skill string, availableOnly bool, p utils.Pagination) ([]models.User, int64, error) {
	filter, err := buildUserFilter(UserFilter{Role: string(models.RoleFreelancer), Q: q, Status: "active", Skill: skill})
	if err != nil {
		return nil, 0, err
	}
	// email is not searchable from the public directory
	if or, ok := filter["$or"].(bson.A); ok {
		filter["$or"] = or[:2]
	}
	if availableOnly {
		filter["freelancer.available"] = true
	}
	return findPage[models.User](ctx, s.users, filter, bson.D{{Key: "createdAt", Value: -1}}, p)
}

func (s *UserService) GetFreelancer(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, s.users, notDeleted(bson.M{
		"_id":      id,
		"role":     models.RoleFreelancer,
		"isActive": true,
		"isBanned": false,
	}), "freelancer")
}

// profileUpdate turns the optional fields of in into a $set document for a user of role.
func profileUpdate(in dto.UpdateUserDTO, role models.Role) (bson.M, error) {
	set := bson.M{}
	str := func(key string, v *string) {
		if v != nil {
			set[key] = strings.TrimSpace(*v)
		}
	}
	if in.FirstName != nil && strings.TrimSpace(*in.FirstName) == "" {
		return nil, invalid("firstName cannot be empty")
	}
	str("firstName", in.FirstName)
	str("lastName", in.LastName)
	str("username", in.Username)
	str("phone", in.Phone)
	str("bio", in.Bio)
	str("country", in.Country)
	str("city", in.City)
	str("timezone", in.Timezone)

	if in.Client != nil {
		if role != models.RoleClient {
			return nil, invalid("client profile only applies to clients")
		}
		set["client"] = clientProfile(in.Client)
	}
	if in.Freelancer != nil {
		if role != models.RoleFreelancer {
			return nil, invalid("freelancer profile only applies to freelancers")
		}
		fp, err := freelancerProfile(in.Freelancer)
		if err != nil {
			return nil, err
		}
		set["freelancer"] = fp
	}
	return set, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id bson.ObjectID, in dto.UpdateUserDTO) (*models.User, error) {
	return s.update(ctx, id, func(u *models.User) (bson.M, error) {
		return profileUpdate(in, u.Role)
	})
}

func (s *UserService) AdminUpdate(ctx context.Context, id, actor bson.ObjectID, in dto.AdminUpdateUserDTO) (*models.User, error) {
	return s.update(ctx, id, func(u *models.User) (bson.M, error) {
		role := u.Role
		if in.Role != nil {
			role = models.Role(*in.Role)
			if !role.Valid() {
				return nil, invalid("unknown role %q", *in.Role)
			}
			if id == actor && role != models.RoleAdmin {
				return nil, forbidden("admins cannot demote themselves")
			}
		}
		set, err := profileUpdate(in.UpdateUserDTO, role)
		if err != nil {
			return nil, err
		}
		if in.Role != nil && role != u.Role {
			set["role"] = role
			switch role {
			case models.RoleClient:
				if u.Client == nil {
					set["client"] = &models.ClientProfile{}
				}
			case models.RoleFreelancer:
				if u.Freelancer == nil {
					set["freelancer"] = &models.FreelancerProfile{Skills: []string{}, Available: true}
				}
			}
		}
		if in.Email != nil {
			set["email"] = utils.NormalizeEmail(*in.Email)
		}
		if in.IsActive != nil {
			if id == actor && !*in.IsActive {
				return nil, forbidden("admins cannot deactivate themselves")
			}
			set["isActive"] = *in.IsActive
		}
		if in.EmailVerified != nil {
			set["emailVerified"] = *in.EmailVerified
		}
		return set, nil
	})
}

func (s *UserService) update(ctx context.Context, id bson.ObjectID, build func(*models.User) (bson.M, error)) (*models.User, error) {
	current, err := s.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	set, err := build(current)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, invalid("no updates provided")
	}
	set["updatedAt"] = time.Now().UTC()

	var out models.User
	err = s.users.FindOneAndUpdate(ctx, notDeleted(bson.M{"_id": id}), bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		if utils.IsDuplicateKey(err) {
			return nil, conflict("email already registered")
		}
		return nil, wrapNoDocuments(err, "user")
	}

	if current.Freelancer != nil || out.Freelancer != nil {
		var before, after []string
		if current.Freelancer != nil {
			before = current.Freelancer.Skills
		}
		if out.Freelancer != nil {
			after = out.Freelancer.Skills
		}
		if err := s.tags.Track(ctx, models.TagTypeSkill, before, after); err != nil {
			s.logger.Warn("skill tags not tracked", zap.Error(err), zap.String("user_id", id.Hex()))
		}
	}
	return &out, nil
}

func (s *UserService) Delete(ctx context.Context, id, actor bson.ObjectID) error {
	if id == actor {
		return forbidden("admins cannot delete themselves")
	}
	return softDelete(ctx, s.users, id, actor, "user")
}

func (s *UserService) SetBanned(ctx context.Context, id, actor bson.ObjectID, banned bool, reason string) (*models.User, error) {
	if id == actor {
		return nil, forbidden("admins cannot ban themselves")
	}
	set := bson.M{"isBanned": banned, "updatedAt": time.Now().UTC()}
	update := bson.M{"$set": set}
	if banned {
		set["banReason"] = strings.TrimSpace(reason)
	} else {
		update["$unset"] = bson.M{"banReason": ""}
	}
	return updateAndReturn[models.User](ctx, s.users, notDeleted(bson.M{"_id": id}), update, "user")
}

func (s *UserService) SetPasswordHash(ctx context.Context, id bson.ObjectID, hash string) error {
	res, err := s.users.UpdateOne(ctx, notDeleted(bson.M{"_id": id}), bson.M{"$set": bson.M{
		"passwordHash": hash,
		"updatedAt":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notFound("user")
	}
	return nil
}

// UploadAvatar stores the picture and replaces the previous one.
func (s *UserService) UploadAvatar(ctx context.Context, id bson.ObjectID, fh *multipart.FileHeader, contentType string) (*models.User, error) {
	current, err := s.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	obj, err := storage.UploadFile(ctx, s.bucket, "avatars", fh, contentType)
	if err != nil {
		return nil, err
	}

	out, err := updateAndReturn[models.User](ctx, s.users, notDeleted(bson.M{"_id": id}), bson.M{"$set": bson.M{
		"profilePicture": obj.URL,
		"updatedAt":      time.Now().UTC(),
	}}, "user")
	if err != nil {
		_ = storage.DeleteObjects(ctx, s.bucket, []string{obj.ObjectName})
		return nil, err
	}

	if current.ProfilePicture != "" {
		if err := storage.DeleteURLs(ctx, s.bucket, []string{current.ProfilePicture}); err != nil {
			s.logger.Warn("old avatar not deleted", zap.Error(err), zap.String("user_id", id.Hex()))
		}
	}
	return out, nil
}

func (s *UserService) TouchLogin(ctx context.Context, id bson.ObjectID, at time.Time) error {
	_, err := s.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{"lastLoginAt": at}})
	return err
}

func (s *UserService) setFields(ctx context.Context, id bson.ObjectID, set bson.M) error {
	set["updatedAt"] = time.Now().UTC()
	res, err := s.users.UpdateOne(ctx, notDeleted(bson.M{"_id": id}), bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notFound("user")
	}
	return nil
}

// CountByRole returns live users per role.
func (s *UserService) CountByRole(ctx context.Context) (map[models.Role]int64, error) {
	return countBy[models.Role](ctx, s.users, notDeleted(bson.M{}), "$role")
}

// SeedAdmin creates the bootstrap admin if no account with that email exists. It reports
// whether a document was inserted.
func (s *UserService) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return false, fmt.Errorf("missing ADMIN_EMAIL or ADMIN_PASSWORD")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	filter := bson.M{"email": email}
	update := bson.M{
		"$setOnInsert": bson.M{
			"email":         email,
			"firstName":     "Admin",
			"lastName":      "",
			"passwordHash":  hash,
			"role":          models.RoleAdmin,
			"isActive":      true,
			"isBanned":      false,
			"emailVerified": true,
			"totpEnabled":   false,
			"isDeleted":     false,
			"createdAt":     now,
			"updatedAt":     now,
		},
	}

	res, err := s.users.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("seed admin upsert failed: %w", err)
	}

	if res.UpsertedCount == 1 {
		s.logger.Info("admin user seeded", zap.String("email", email))
		return true, nil
	}
	s.logger.Info("admin user already exists", zap.String("email", email))
	return false, nil
}
