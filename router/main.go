package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ucmsdev/ucms-api/config"
	"github.com/ucmsdev/ucms-api/database"
	assign_handlers "github.com/ucmsdev/ucms-api/handlers/assign"
	auth_handlers "github.com/ucmsdev/ucms-api/handlers/auth"
	content_handlers "github.com/ucmsdev/ucms-api/handlers/content"
	course_handlers "github.com/ucmsdev/ucms-api/handlers/course"
	result_handlers "github.com/ucmsdev/ucms-api/handlers/result"
	"github.com/ucmsdev/ucms-api/utils/auth"
	"github.com/ucmsdev/ucms-api/utils/cache"
	"github.com/ucmsdev/ucms-api/utils/middleware"
	"github.com/ucmsdev/ucms-api/utils/response"
	"github.com/ucmsdev/ucms-api/utils/storage"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	getEnv, err := config.Get()
	if err != nil {
		log.Fatal("Failed to read configuration")
	}

	if getEnv.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := getEnv.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "ucms-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        getEnv.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	})

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis-backed brute force protection for login; disabled when Redis
	// is unreachable rather than blocking startup
	redisURL := getEnv.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache, err := cache.NewRedisCache(redisURL); err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	} else {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	files := storage.NewStore(getEnv.UPLOAD_DIR, getEnv.ASSET_BASE_URL)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(db, files)
	contentHandler := content_handlers.NewContentHandler(db, files)
	assignHandler := assign_handlers.NewAssignHandler(db)
	resultHandler := result_handlers.NewResultHandler(db)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", func(c *fiber.Ctx) error {
		if err := store.HealthCheck(); err != nil {
			return response.InternalServerError(c, "Database unreachable")
		}
		return response.Success(c, fiber.Map{"status": "ok"})
	})

	// Stored files are served under the asset base path
	app.Static("/assets", getEnv.UPLOAD_DIR)

	// Public auth
	if bruteForceProtection != nil {
		app.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		app.Post("/login", authHandler.Login)
	}
	app.Post("/register", authHandler.Register)
	app.Post("/refresh", authHandler.RefreshToken)

	required := authMiddleware.Required()
	admin := authMiddleware.RequireAdmin()

	// Session
	app.Post("/logout", required, authHandler.Logout)
	app.Get("/user", required, authHandler.Me)

	// Courses
	app.Get("/courses", required, courseHandler.ListCourses)
	app.Post("/courses/store", admin, courseHandler.CreateCourse)
	app.Put("/courses/update/:id", admin, courseHandler.UpdateCourse)
	app.Delete("/courses/delete/:id", admin, courseHandler.DeleteCourse)

	// Course contents
	app.Get("/courses/content/:id", required, contentHandler.ListForCourse)
	app.Post("/add-content/:id", admin, contentHandler.AddContent)
	app.Put("/update-content/:id", admin, contentHandler.UpdateContent)
	app.Delete("/delete-content/:id", admin, contentHandler.DeleteContent)

	// Results
	app.Get("/results", required, resultHandler.ListResults)
	app.Get("/results/options", required, resultHandler.Options)
	app.Post("/results/store", admin, resultHandler.StoreResult)
	app.Get("/results/show/:id", required, resultHandler.ShowResult)
	app.Put("/results/update/:id", admin, resultHandler.UpdateResult)
	app.Delete("/results/delete/:id", admin, resultHandler.DestroyResult)

	// Assignments (admin-only)
	app.Get("/assigns", admin, assignHandler.ListAssigns)
	app.Get("/assigns/options", admin, assignHandler.Options)
	app.Post("/assigns/store", admin, assignHandler.CreateAssign)
	app.Put("/assigns/update/:id", admin, assignHandler.UpdateAssign)
	app.Delete("/assigns/delete/:id", admin, assignHandler.DeleteAssign)
}
