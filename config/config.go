package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type StorageConfig struct {
	Driver          string
	GCSBucket       string
	CredentialsFile string
	R2Bucket        string
	R2AccessKeyID   string
	R2SecretKey     string
	R2Endpoint      string
	R2PublicDomain  string
}

type UploadConfig struct {
	AllowedExtensions []string
	AllowedMimeTypes  []string
	MaxUploadSizeMB   int
	MaxVideoSizeMB    int
	MaxProjectFiles   int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s SMTPConfig) Enabled() bool { return s.Host != "" && s.From != "" }

type VideoConfig struct {
	FFmpegPath    string
	FFmpegArgs    []string
	MaxConcurrent int
	JobTimeout    time.Duration
}

type Config struct {
	Env            string
	Port           string
	AllowedOrigins []string
	AppBaseURL     string

	MongoURI     string
	DatabaseName string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret        string
	JWTRefreshSecret string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	CookieSecure     bool
	CookieDomain     string

	AdminEmail    string
	AdminPassword string

	DefaultQueryLimit int
	MaxQueryLimit     int

	LoginMaxAttempts int
	LoginWindow      time.Duration
	InvitationTTL    time.Duration
	PasswordResetTTL time.Duration

	Storage StorageConfig
	Upload  UploadConfig
	SMTP    SMTPConfig
	Video   VideoConfig
}

// DefaultFFmpegArgs read the source from stdin and write a fragmented mp4 to stdout,
// so neither side of the pipe needs to be seekable.
var DefaultFFmpegArgs = []string{
	"-hide_banner", "-loglevel", "error",
	"-i", "pipe:0",
	"-vcodec", "libx264", "-crf", "28", "-preset", "veryfast",
	"-acodec", "aac", "-b:a", "128k",
	"-movflags", "frag_keyframe+empty_moov",
	"-f", "mp4", "pipe:1",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_BASE_URL", "http://localhost:3000")
	v.SetDefault("DATABASE_NAME", "mmv_freelance")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 15)
	v.SetDefault("REFRESH_TOKEN_TTL_DAYS", 14)
	v.SetDefault("STORAGE_DRIVER", "gcs")
	v.SetDefault("ALLOWED_FILE_EXTENSIONS", ".pdf,.jpg,.jpeg,.png,.webp,.mp4,.mov,.webm")
	v.SetDefault("ALLOWED_FILE_MIME_TYPES", "application/pdf,image/jpeg,image/png,image/webp,video/mp4,video/webm,application/octet-stream")
	v.SetDefault("MAX_UPLOAD_SIZE_MB", 5)
	v.SetDefault("MAX_VIDEO_SIZE_MB", 200)
	v.SetDefault("MAX_PROJECT_FILES", 5)
	v.SetDefault("DEFAULT_READ_QUERY_LIMIT", 20)
	v.SetDefault("READ_QUERY_MAX_LIMIT", 100)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("FFMPEG_PATH", "ffmpeg")
	v.SetDefault("VIDEO_MAX_CONCURRENT", 2)
	v.SetDefault("VIDEO_JOB_TIMEOUT_MINUTES", 30)
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("LOGIN_WINDOW_MINUTES", 15)
	v.SetDefault("INVITATION_TTL_HOURS", 72)
	v.SetDefault("PASSWORD_RESET_TTL_MINUTES", 30)
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env:            v.GetString("APP_ENV"),
		Port:           v.GetString("PORT"),
		AllowedOrigins: SplitList(v.GetString("ALLOWED_ORIGINS")),
		AppBaseURL:     strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),

		MongoURI:     v.GetString("MONGODB_URI"),
		DatabaseName: v.GetString("DATABASE_NAME"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTRefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
		AccessTTL:        positiveDuration(v.GetInt("ACCESS_TOKEN_TTL_MINUTES"), 15, time.Minute),
		RefreshTTL:       positiveDuration(v.GetInt("REFRESH_TOKEN_TTL_DAYS"), 14, 24*time.Hour),
		CookieSecure:     v.GetBool("COOKIE_SECURE"),
		CookieDomain:     v.GetString("COOKIE_DOMAIN"),

		AdminEmail:    strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),

		DefaultQueryLimit: v.GetInt("DEFAULT_READ_QUERY_LIMIT"),
		MaxQueryLimit:     v.GetInt("READ_QUERY_MAX_LIMIT"),

		LoginMaxAttempts: v.GetInt("LOGIN_MAX_ATTEMPTS"),
		LoginWindow:      positiveDuration(v.GetInt("LOGIN_WINDOW_MINUTES"), 15, time.Minute),
		InvitationTTL:    positiveDuration(v.GetInt("INVITATION_TTL_HOURS"), 72, time.Hour),
		PasswordResetTTL: positiveDuration(v.GetInt("PASSWORD_RESET_TTL_MINUTES"), 30, time.Minute),

		Storage: StorageConfig{
			Driver:          strings.ToLower(v.GetString("STORAGE_DRIVER")),
			GCSBucket:       v.GetString("GCS_BUCKET"),
			CredentialsFile: v.GetString("CREDENTIALS_FILE_LOCATION"),
			R2Bucket:        v.GetString("R2_BUCKET"),
			R2AccessKeyID:   v.GetString("R2_ACCESS_KEY_ID"),
			R2SecretKey:     v.GetString("R2_SECRET_ACCESS_KEY"),
			R2Endpoint:      v.GetString("R2_ENDPOINT"),
			R2PublicDomain:  v.GetString("R2_PUBLIC_DOMAIN"),
		},
		Upload: UploadConfig{
			AllowedExtensions: SplitList(strings.ToLower(v.GetString("ALLOWED_FILE_EXTENSIONS"))),
			AllowedMimeTypes:  SplitList(strings.ToLower(v.GetString("ALLOWED_FILE_MIME_TYPES"))),
			MaxUploadSizeMB:   v.GetInt("MAX_UPLOAD_SIZE_MB"),
			MaxVideoSizeMB:    v.GetInt("MAX_VIDEO_SIZE_MB"),
			MaxProjectFiles:   v.GetInt("MAX_PROJECT_FILES"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Video: VideoConfig{
			FFmpegPath:    v.GetString("FFMPEG_PATH"),
			FFmpegArgs:    DefaultFFmpegArgs,
			MaxConcurrent: v.GetInt("VIDEO_MAX_CONCURRENT"),
			JobTimeout:    positiveDuration(v.GetInt("VIDEO_JOB_TIMEOUT_MINUTES"), 30, time.Minute),
		},
	}

	if args := strings.Fields(v.GetString("FFMPEG_ARGS")); len(args) > 0 {
		cfg.Video.FFmpegArgs = args
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var missing []string
	if c.MongoURI == "" {
		missing = append(missing, "MONGODB_URI")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.JWTRefreshSecret == "" {
		missing = append(missing, "JWT_REFRESH_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if c.MaxQueryLimit < 1 {
		c.MaxQueryLimit = 100
	}
	if c.DefaultQueryLimit < 1 || c.DefaultQueryLimit > c.MaxQueryLimit {
		c.DefaultQueryLimit = 20
	}
	if c.Video.MaxConcurrent < 1 {
		c.Video.MaxConcurrent = 1
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// SplitList splits a comma separated env value, dropping blanks.
func SplitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func positiveDuration(n, def int, unit time.Duration) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * unit
}
