package server

import (
	"net/http"
	"time"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/controllers"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/middleware"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/models"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Services struct {
	Auth         *services.AuthService
	Users        *services.UserService
	Invitations  *services.InvitationService
	Categories   *services.CategoryService
	Tags         *services.TagService
	Projects     *services.ProjectService
	Applications *services.ApplicationService
	Submissions  *services.SubmissionService
	Reviews      *services.ReviewService
	Bookmarks    *services.BookmarkService
	Macros       *services.MacroService
	Visitors     *services.VisitorService
	CMS          *services.CMSService
	Media        *services.MediaService
	Dashboard    *services.DashboardService
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Cookie         controllers.SessionCookie
	// Files validates attachments and media uploads; Images validates avatars, category
	// pictures and blog covers.
	Files    *utils.FileValidator
	Images   *utils.FileValidator
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

func corsMiddleware(origins []string, logger *zap.Logger) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	logger.Info("cors allow-list", zap.Strings("origins", origins))
	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(s Services, o Options) *gin.Engine {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Registry == nil {
		o.Registry = prometheus.NewRegistry()
	}

	r := gin.New()
	r.Use(ginzap.Ginzap(o.Logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(o.Logger, true))
	r.Use(corsMiddleware(o.AllowedOrigins, o.Logger))
	r.Use(middleware.NewMetrics(o.Registry).Handler())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{})))

	authed := middleware.AuthMiddleware(o.JWTSecret)
	optional := middleware.OptionalAuth(o.JWTSecret)

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register(s.Auth))
		auth.POST("/login", controllers.Login(s.Auth, o.Cookie))
		auth.POST("/refresh", controllers.Refresh(s.Auth, o.Cookie))
		auth.POST("/logout", controllers.Logout(s.Auth, o.Cookie))
		auth.POST("/forgot-password", controllers.ForgotPassword(s.Auth))
		auth.POST("/reset-password", controllers.ResetPassword(s.Auth))
	}
	r.POST("/invitations/accept", controllers.AcceptInvitation(s.Invitations))

	// public catalogue
	r.GET("/categories", controllers.GetCategories(s.Categories, true))
	r.GET("/categories/:id", controllers.GetCategory(s.Categories))
	r.GET("/categories/slug/:slug", controllers.GetCategoryBySlug(s.Categories))
	r.GET("/tags", controllers.GetTags(s.Tags))
	r.GET("/freelancers", controllers.GetFreelancers(s.Users))
	r.GET("/freelancers/:id", controllers.GetFreelancer(s.Users, s.Reviews))
	r.GET("/users/:id/reviews", controllers.GetUserReviews(s.Reviews))
	r.GET("/projects", controllers.GetPublicProjects(s.Projects))
	r.GET("/projects/:id", optional, controllers.GetProject(s.Projects))
	r.GET("/projects/:id/reviews", controllers.GetProjectReviews(s.Reviews))
	r.POST("/visitors/track", optional, controllers.TrackVisit(s.Visitors))
	r.GET("/pages/:slug", controllers.GetPublishedPage(s.CMS))
	r.GET("/blogs", controllers.GetPublishedBlogs(s.CMS))
	r.GET("/blogs/:slug", controllers.ReadBlog(s.CMS))

	me := r.Group("/me", authed)
	{
		me.GET("", controllers.GetMe(s.Users))
		me.PATCH("", controllers.UpdateMe(s.Users))
		me.POST("/password", controllers.ChangeMyPassword(s.Auth, o.Cookie))
		me.POST("/avatar", controllers.UploadAvatar(s.Users, o.Images))
		me.POST("/totp/setup", controllers.SetupTOTP(s.Auth))
		me.POST("/totp/enable", controllers.ToggleTOTP(s.Auth, true))
		me.POST("/totp/disable", controllers.ToggleTOTP(s.Auth, false))
		me.GET("/projects", controllers.GetMyProjects(s.Projects))
		me.GET("/applications", middleware.RequireRoles(models.RoleFreelancer), controllers.GetMyApplications(s.Applications))

		clients := me.Group("/favorites", middleware.RequireRoles(models.RoleClient))
		clients.GET("", controllers.GetFavorites(s.Bookmarks))
		clients.PUT("/:id", controllers.AddFavorite(s.Bookmarks))
		clients.DELETE("/:id", controllers.RemoveFavorite(s.Bookmarks))

		saved := me.Group("/saved-projects", middleware.RequireRoles(models.RoleFreelancer))
		saved.GET("", controllers.GetSavedProjects(s.Bookmarks))
		saved.PUT("/:id", controllers.SaveProject(s.Bookmarks))
		saved.DELETE("/:id", controllers.UnsaveProject(s.Bookmarks))
	}

	projects := r.Group("/projects", authed)
	{
		projects.POST("", middleware.RequireRoles(models.RoleClient, models.RoleAdmin), controllers.AddProject(s.Projects, o.Files))
		projects.PATCH("/:id", controllers.UpdateProject(s.Projects, o.Files))
		projects.PATCH("/:id/status", controllers.UpdateProjectStatus(s.Projects))
		projects.DELETE("/:id", controllers.DeleteProject(s.Projects))

		projects.POST("/:id/applications", middleware.RequireRoles(models.RoleFreelancer), controllers.Apply(s.Applications, o.Files))
		projects.GET("/:id/applications", controllers.GetProjectApplications(s.Applications))
		projects.POST("/:id/submissions", middleware.RequireRoles(models.RoleFreelancer), controllers.SubmitWork(s.Submissions, o.Files))
		projects.GET("/:id/submissions", controllers.GetProjectSubmissions(s.Submissions))
		projects.POST("/:id/reviews", controllers.AddReview(s.Reviews))
	}

	applications := r.Group("/applications", authed)
	{
		applications.GET("/:id", controllers.GetApplication(s.Applications))
		applications.PATCH("/:id/status", controllers.UpdateApplicationStatus(s.Applications))
		applications.POST("/:id/withdraw", controllers.WithdrawApplication(s.Applications))
		applications.POST("/:id/hire", controllers.HireApplicant(s.Applications))
	}

	submissions := r.Group("/submissions", authed)
	{
		submissions.POST("/:id/start-review", controllers.ReviewSubmission(controllers.StartReviewStep(s.Submissions)))
		submissions.POST("/:id/approve", controllers.ReviewSubmission(s.Submissions.Approve))
		submissions.POST("/:id/reject", controllers.ReviewSubmission(s.Submissions.Reject))
	}

	admin := r.Group("/admin", authed, middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/dashboard", controllers.GetDashboard(s.Dashboard))

		admin.POST("/users", controllers.CreateUser(s.Users))
		admin.GET("/users", controllers.GetUsers(s.Users))
		admin.GET("/users/:id", controllers.GetUser(s.Users))
		admin.PATCH("/users/:id", controllers.UpdateUser(s.Users))
		admin.DELETE("/users/:id", controllers.DeleteUser(s.Users))
		admin.POST("/users/:id/ban", controllers.SetUserBanned(s.Users, true))
		admin.POST("/users/:id/unban", controllers.SetUserBanned(s.Users, false))

		admin.POST("/invitations", controllers.InviteUser(s.Invitations))
		admin.GET("/invitations", controllers.GetInvitations(s.Invitations))
		admin.POST("/invitations/:id/revoke", controllers.RevokeInvitation(s.Invitations))

		admin.GET("/categories", controllers.GetCategories(s.Categories, false))
		admin.POST("/categories", controllers.AddCategory(s.Categories, o.Images))
		admin.PATCH("/categories/:id", controllers.UpdateCategory(s.Categories, o.Images))
		admin.DELETE("/categories/:id", controllers.DeleteCategory(s.Categories))

		admin.POST("/tags", controllers.AddTag(s.Tags))
		admin.PATCH("/tags/:id", controllers.UpdateTag(s.Tags))
		admin.DELETE("/tags/:id", controllers.DeleteTag(s.Tags))

		admin.GET("/projects", controllers.GetAllProjects(s.Projects))
		admin.GET("/applications", controllers.GetAllApplications(s.Applications))
		admin.GET("/submissions", controllers.GetAllSubmissions(s.Submissions))
		admin.GET("/reviews", controllers.GetAllReviews(s.Reviews))
		admin.DELETE("/reviews/:id", controllers.DeleteReview(s.Reviews))

		admin.POST("/macros", controllers.AddMacro(s.Macros))
		admin.GET("/macros", controllers.GetMacros(s.Macros))
		admin.GET("/macros/:id", controllers.GetMacro(s.Macros))
		admin.PATCH("/macros/:id", controllers.UpdateMacro(s.Macros))
		admin.DELETE("/macros/:id", controllers.DeleteMacro(s.Macros))
		admin.POST("/macros/:id/render", controllers.RenderMacro(s.Macros))

		admin.GET("/visitors", controllers.GetVisits(s.Visitors))
		admin.GET("/visitors/stats", controllers.GetVisitorStats(s.Visitors))
		admin.GET("/visitors/realtime", controllers.GetRealtimeVisitors(s.Visitors))

		admin.POST("/pages", controllers.AddPage(s.CMS))
		admin.GET("/pages", controllers.GetPages(s.CMS))
		admin.GET("/pages/:id", controllers.GetPage(s.CMS))
		admin.PATCH("/pages/:id", controllers.UpdatePage(s.CMS))
		admin.DELETE("/pages/:id", controllers.DeletePage(s.CMS))

		admin.POST("/blogs", controllers.AddBlog(s.CMS, o.Images))
		admin.GET("/blogs", controllers.GetBlogs(s.CMS))
		admin.GET("/blogs/:id", controllers.GetBlog(s.CMS))
		admin.PATCH("/blogs/:id", controllers.UpdateBlog(s.CMS, o.Images))
		admin.DELETE("/blogs/:id", controllers.DeleteBlog(s.CMS))

		admin.POST("/media", controllers.UploadMedia(s.Media, o.Files))
		admin.DELETE("/media", controllers.DeleteMedia(s.Media))
		admin.POST("/videos/compress", controllers.CompressVideo(s.Media))
		admin.GET("/videos/jobs", controllers.GetVideoJobs(s.Media))
		admin.GET("/videos/jobs/:id", controllers.GetVideoJob(s.Media))
	}

	return r
}
