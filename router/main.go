package router

import (
	"github.com/campusconnect/api/database"
	"github.com/campusconnect/api/handlers"
	admin_handlers "github.com/campusconnect/api/handlers/admin"
	auth_handlers "github.com/campusconnect/api/handlers/auth"
	careerplan_handlers "github.com/campusconnect/api/handlers/careerplan"
	course_handlers "github.com/campusconnect/api/handlers/course"
	legit_handlers "github.com/campusconnect/api/handlers/legit"
	notification_handlers "github.com/campusconnect/api/handlers/notification"
	reference_handlers "github.com/campusconnect/api/handlers/reference"
	resume_handlers "github.com/campusconnect/api/handlers/resume"
	search_handlers "github.com/campusconnect/api/handlers/search"
	selector_handlers "github.com/campusconnect/api/handlers/selector"
	submission_handlers "github.com/campusconnect/api/handlers/submission"
	university_handlers "github.com/campusconnect/api/handlers/university"
	"github.com/campusconnect/api/services/careerplan"
	"github.com/campusconnect/api/services/changefeed"
	"github.com/campusconnect/api/services/moderation"
	"github.com/campusconnect/api/services/notification"
	"github.com/campusconnect/api/services/resume"
	"github.com/campusconnect/api/services/search"
	"github.com/campusconnect/api/services/selector"
	"github.com/campusconnect/api/services/submission"
	"github.com/campusconnect/api/services/taxonomy"
	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/auth"
	"github.com/campusconnect/api/utils/middleware"
	"github.com/gofiber/fiber/v2"
)

// Deps is everything the route table needs. The process builds it once in
// app.SetupAndRunServer; tests build their own.
type Deps struct {
	Store       database.Storage
	Log         *utils.Logger
	JWT         *auth.JWTManager
	Hasher      *auth.Hasher
	Blacklist   *auth.BlacklistService
	BruteForce  *middleware.BruteForceProtection // nil disables login lockout
	Taxonomy    *taxonomy.Service
	Selector    *selector.Machine
	Search      *search.Service
	Submissions *submission.Pipeline
	Moderation  *moderation.Queue
	Broker      changefeed.Broker
	Notices     *notification.Service
	CareerPlan  *careerplan.Generator
	Resume      *resume.Service
	Legit       legit_handlers.Checker
	MaxUploadMB int
}

func SetupRoutes(app *fiber.App, deps Deps) {
	db := deps.Store.DB()

	authMiddleware := middleware.NewAuthMiddleware(deps.JWT, deps.Blacklist, db)

	authHandler := auth_handlers.NewAuthHandler(db, deps.JWT, deps.Hasher, deps.Blacklist, deps.BruteForce, deps.Log)
	universityHandler := university_handlers.NewUniversityHandler(deps.Taxonomy, deps.Log)
	courseHandler := course_handlers.NewCourseHandler(deps.Taxonomy, deps.Log)
	referenceHandler := reference_handlers.NewReferenceHandler(deps.Taxonomy, deps.Log)
	selectorHandler := selector_handlers.NewSelectorHandler(deps.Selector)
	searchHandler := search_handlers.NewSearchHandler(db, deps.Search, deps.Log)
	submissionHandler := submission_handlers.NewSubmissionHandler(deps.Submissions, deps.MaxUploadMB, deps.Log)
	moderationHandler := admin_handlers.NewModerationHandler(deps.Moderation, deps.Broker, deps.Log)
	auditHandler := admin_handlers.NewAuditHandler(db, deps.Log)
	careerPlanHandler := careerplan_handlers.NewCareerPlanHandler(deps.CareerPlan)
	resumeHandler := resume_handlers.NewResumeHandler(deps.Resume, deps.Log)
	legitHandler := legit_handlers.NewLegitHandler(deps.Legit)
	notificationHandler := notification_handlers.NewNotificationHandler(deps.Notices, deps.Log)

	// Health check endpoint (public)
	app.Get("/ping", handlers.MakeHTTPHandleFunc(handlers.HandleCheckHealth, deps.Store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	if deps.BruteForce != nil {
		authGroup.Post("/login", deps.BruteForce.CheckLock(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Get("/me", authMiddleware.Required(), authHandler.GetProfile)
	authGroup.Put("/me", authMiddleware.Required(), authHandler.UpdateProfile)

	// Reference data (public)
	api.Get("/universities", universityHandler.ListUniversities)
	api.Get("/universities/:id/courses", universityHandler.ListCourses)
	api.Get("/courses/:id/branches", courseHandler.ListBranches)
	api.Get("/courses/:id/years", courseHandler.ListYears)
	api.Get("/document-types", referenceHandler.ListDocumentTypes)
	api.Get("/years", referenceHandler.ListYears)
	api.Get("/areas", referenceHandler.ListAreas)

	// Cascading selector
	api.Post("/selector/transition", selectorHandler.Transition)

	// Public collections
	api.Get("/materials", searchHandler.ListMaterials)
	api.Get("/materials/search", searchHandler.SearchMaterials)
	api.Get("/services", searchHandler.ListServices)
	api.Get("/services/search", searchHandler.SearchServices)

	// Submissions: anonymous callers get the pipeline's sign-in message
	submissions := api.Group("/submissions", authMiddleware.Optional())
	submissions.Post("/documents", submissionHandler.SubmitDocument)
	submissions.Post("/services", submissionHandler.SubmitService)
	submissions.Get("/mine", submissionHandler.ListMine)

	// Moderation outcomes for submitters
	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.GetNotifications)
	notifications.Get("/unread-count", notificationHandler.GetUnreadCount)
	notifications.Post("/read-all", notificationHandler.MarkAllAsRead)
	notifications.Post("/:id/read", notificationHandler.MarkAsRead)
	notifications.Delete("/:id", notificationHandler.DeleteNotification)
	notifications.Delete("/", notificationHandler.DeleteAllNotifications)

	// Student tools
	api.Post("/career-plan", authMiddleware.Required(), careerPlanHandler.Generate)
	api.Post("/resume/pdf", resumeHandler.GeneratePDF)
	api.Get("/legit/check", legitHandler.Check)

	// ==================== Admin ====================

	admin := api.Group("/admin", authMiddleware.RequireAdmin())

	// Moderation queue
	admin.Get("/moderation/stream", moderationHandler.Stream)
	admin.Get("/pending/materials", moderationHandler.ListPendingMaterials)
	admin.Get("/pending/services", moderationHandler.ListPendingServices)
	admin.Post("/pending/materials/:id/approve", moderationHandler.ApproveMaterial)
	admin.Post("/pending/materials/:id/reject", moderationHandler.RejectMaterial)
	admin.Post("/pending/services/:id/approve", moderationHandler.ApproveService)
	admin.Post("/pending/services/:id/reject", moderationHandler.RejectService)

	// Audit trail
	admin.Get("/audit-logs", auditHandler.ListAuditLogs)
	admin.Get("/audit-logs/:id", auditHandler.GetAuditLog)

	// Reference data maintenance
	admin.Post("/universities", universityHandler.CreateUniversity)
	admin.Put("/universities/:id", universityHandler.RenameUniversity)
	admin.Delete("/universities/:id", universityHandler.DeleteUniversity)
	admin.Post("/courses", courseHandler.CreateCourse)
	admin.Put("/courses/:id", courseHandler.UpdateCourse)
	admin.Delete("/courses/:id", courseHandler.DeleteCourse)
	admin.Post("/courses/:id/branches", courseHandler.CreateBranch)
	admin.Delete("/branches/:id", courseHandler.DeleteBranch)
	admin.Post("/document-types", referenceHandler.CreateDocumentType)
	admin.Delete("/document-types/:id", referenceHandler.DeleteDocumentType)
	admin.Post("/areas", referenceHandler.CreateArea)
	admin.Delete("/areas/:id", referenceHandler.DeleteArea)
}
