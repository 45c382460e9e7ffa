package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/database"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/mailer"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

type AuthConfig struct {
	JWTSecret        string
	RefreshSecret    string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	PasswordResetTTL time.Duration
	LoginMaxAttempts int
	LoginWindow      time.Duration
	AppBaseURL       string
	TOTPIssuer       string
}

type AuthService struct {
	users   *UserService
	refresh *mongo.Collection
	resets  *mongo.Collection
	rdb     *redis.Client
	mailer  mailer.Mailer
	cfg     AuthConfig
	logger  *zap.Logger
}

func NewAuthService(db *database.DB, users *UserService, rdb *redis.Client, m mailer.Mailer, cfg AuthConfig, logger *zap.Logger) *AuthService {
	if cfg.TOTPIssuer == "" {
		cfg.TOTPIssuer = "MMV Freelance"
	}
	return &AuthService{
		users:   users,
		refresh: db.Collection(database.RefreshTokensCollection),
		resets:  db.Collection(database.PasswordResetsCollection),
		rdb:     rdb,
		mailer:  m,
		cfg:     cfg,
		logger:  logger,
	}
}

type Session struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"-"`
	User         *models.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, in dto.RegisterDTO) (*models.User, error) {
	role := models.Role(in.Role)
	if role != models.RoleClient && role != models.RoleFreelancer {
		return nil, invalid("role must be CLIENT or FREELANCER")
	}
	return s.users.Create(ctx, NewAccount{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
		Role:      role,
		Phone:     in.Phone,
		Country:   in.Country,
	})
}

func loginAttemptsKey(email, ip string) string {
	return "login:fail:" + utils.NormalizeEmail(email) + ":" + ip
}

func (s *AuthService) checkLoginRate(ctx context.Context, key string) error {
	if s.rdb == nil || s.cfg.LoginMaxAttempts <= 0 {
		return nil
	}
	n, err := s.rdb.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		s.logger.Warn("login rate check failed", zap.Error(err))
		return nil
	}
	if n >= s.cfg.LoginMaxAttempts {
		return ErrTooManyRequests
	}
	return nil
}

func (s *AuthService) recordLoginFailure(ctx context.Context, key string) {
	if s.rdb == nil || s.cfg.LoginMaxAttempts <= 0 {
		return
	}
	pipe := s.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.cfg.LoginWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("login failure not recorded", zap.Error(err))
	}
}

var errInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)

func (s *AuthService) Login(ctx context.Context, in dto.LoginDTO, ip string) (*Session, error) {
	key := loginAttemptsKey(in.Email, ip)
	if err := s.checkLoginRate(ctx, key); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.recordLoginFailure(ctx, key)
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := utils.CheckPassword(user.PasswordHash, in.Password); err != nil {
		s.recordLoginFailure(ctx, key)
		return nil, errInvalidCredentials
	}
	if !user.CanSignIn() {
		return nil, forbidden("account disabled")
	}
	if user.TOTPEnabled {
		if in.TOTPCode == "" {
			return nil, ErrTOTPRequired
		}
		if !totp.Validate(in.TOTPCode, user.TOTPSecret) {
			s.recordLoginFailure(ctx, key)
			return nil, fmt.Errorf("%w: invalid two-factor code", ErrUnauthorized)
		}
	}

	if s.rdb != nil {
		s.rdb.Del(ctx, key)
	}

	session, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.users.TouchLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("lastLoginAt not updated", zap.Error(err), zap.String("user_id", user.ID.Hex()))
	}
	return session, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*Session, error) {
	access, err := utils.GenerateAccessToken(s.cfg.JWTSecret, user.ID.Hex(), user.Email, string(user.Role), s.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := s.newRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

func (s *AuthService) newRefreshToken(ctx context.Context, userID bson.ObjectID) (string, error) {
	token, err := utils.NewOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.refresh.InsertOne(ctx, models.RefreshToken{
		UserID:    userID,
		TokenHash: utils.HashTokenWithKey(s.cfg.RefreshSecret, token),
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return token, nil
}

// Refresh rotates the refresh token: the presented one is revoked and linked to its successor.
func (s *AuthService) Refresh(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing refresh token", ErrUnauthorized)
	}
	now := time.Now().UTC()
	hash := utils.HashTokenWithKey(s.cfg.RefreshSecret, token)

	var rt models.RefreshToken
	err := s.refresh.FindOne(ctx, bson.M{
		"tokenHash": hash,
		"revokedAt": bson.M{"$exists": false},
		"expiresAt": bson.M{"$gt": now},
	}).Decode(&rt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
		}
		return nil, err
	}

	user, err := s.users.GetActive(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid user", ErrUnauthorized)
		}
		return nil, err
	}
	if !user.CanSignIn() {
		return nil, forbidden("account disabled")
	}

	session, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	replacedBy := utils.HashTokenWithKey(s.cfg.RefreshSecret, session.RefreshToken)

	// only the first concurrent refresh wins the old token
	res, err := s.refresh.UpdateOne(ctx, bson.M{
		"_id":       rt.ID,
		"revokedAt": bson.M{"$exists": false},
	}, bson.M{"$set": bson.M{"revokedAt": now, "replacedBy": replacedBy}})
	if err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	if res.ModifiedCount == 0 {
		_ = s.revokeHash(ctx, replacedBy, now)
		return nil, fmt.Errorf("%w: refresh token already used", ErrUnauthorized)
	}
	return session, nil
}

func (s *AuthService) revokeHash(ctx context.Context, hash string, now time.Time) error {
	_, err := s.refresh.UpdateOne(ctx, bson.M{
		"tokenHash": hash,
		"revokedAt": bson.M{"$exists": false},
	}, bson.M{"$set": bson.M{"revokedAt": now}})
	return err
}

// Logout revokes the token if it is known; unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.revokeHash(ctx, utils.HashTokenWithKey(s.cfg.RefreshSecret, token), time.Now().UTC())
}

func (s *AuthService) RevokeAllRefreshTokens(ctx context.Context, userID bson.ObjectID) error {
	_, err := s.refresh.UpdateMany(ctx, bson.M{
		"userId":    userID,
		"revokedAt": bson.M{"$exists": false},
	}, bson.M{"$set": bson.M{"revokedAt": time.Now().UTC()}})
	return err
}

func (s *AuthService) ChangeMyPassword(ctx context.Context, userID bson.ObjectID, in dto.ChangeMyPasswordDTO) error {
	user, err := s.users.GetActive(ctx, userID)
	if err != nil {
		return err
	}
	if err := utils.CheckPassword(user.PasswordHash, in.CurrentPassword); err != nil {
		return fmt.Errorf("%w: current password is incorrect", ErrUnauthorized)
	}
	if in.CurrentPassword == in.NewPassword {
		return invalid("new password must differ from the current one")
	}
	return s.setPassword(ctx, userID, in.NewPassword)
}

func (s *AuthService) setPassword(ctx context.Context, userID bson.ObjectID, password string) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPasswordHash(ctx, userID, hash); err != nil {
		return err
	}
	return s.RevokeAllRefreshTokens(ctx, userID)
}

// ForgotPassword never reveals whether the email is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if !user.CanSignIn() {
		return nil
	}

	token, err := utils.NewOpaqueToken()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	reset := models.PasswordReset{
		UserID:    user.ID,
		TokenHash: utils.HashToken(token),
		ExpiresAt: now.Add(s.cfg.PasswordResetTTL),
		CreatedAt: now,
	}
	if _, err := s.resets.InsertOne(ctx, reset); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := s.cfg.AppBaseURL + "/reset-password?token=" + url.QueryEscape(token)
	msg := mailer.PasswordResetMessage(user.Email, user.FullName(), link, reset.ExpiresAt)
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("password reset email failed", zap.Error(err), zap.String("user_id", user.ID.Hex()))
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, in dto.ResetPasswordDTO) error {
	now := time.Now().UTC()
	var reset models.PasswordReset
	err := s.resets.FindOneAndUpdate(ctx, bson.M{
		"tokenHash": utils.HashToken(in.Token),
		"usedAt":    bson.M{"$exists": false},
		"expiresAt": bson.M{"$gt": now},
	}, bson.M{"$set": bson.M{"usedAt": now}}).Decode(&reset)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return invalid("reset link is invalid or expired")
		}
		return err
	}
	return s.setPassword(ctx, reset.UserID, in.NewPassword)
}

type TOTPSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauthUrl"`
}

// SetupTOTP stores a fresh secret; it takes effect only after EnableTOTP confirms a code.
func (s *AuthService) SetupTOTP(ctx context.Context, userID bson.ObjectID) (*TOTPSetup, error) {
	user, err := s.users.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TOTPEnabled {
		return nil, conflict("two-factor authentication already enabled")
	}
	key, err := totp.Generate(totp.GenerateOpts{Issuer: s.cfg.TOTPIssuer, AccountName: user.Email})
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}
	if err := s.users.setFields(ctx, userID, bson.M{"totpSecret": key.Secret()}); err != nil {
		return nil, err
	}
	return &TOTPSetup{Secret: key.Secret(), URL: key.URL()}, nil
}

func (s *AuthService) EnableTOTP(ctx context.Context, userID bson.ObjectID, code string) error {
	user, err := s.users.GetActive(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPSecret == "" {
		return invalid("two-factor setup has not been started")
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return invalid("invalid two-factor code")
	}
	return s.users.setFields(ctx, userID, bson.M{"totpEnabled": true})
}

func (s *AuthService) DisableTOTP(ctx context.Context, userID bson.ObjectID, code string) error {
	user, err := s.users.GetActive(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TOTPEnabled {
		return invalid("two-factor authentication is not enabled")
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return invalid("invalid two-factor code")
	}
	return s.users.setFields(ctx, userID, bson.M{"totpEnabled": false, "totpSecret": ""})
}
