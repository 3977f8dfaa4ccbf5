package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/truetread/truetread-api/config"
	"github.com/truetread/truetread-api/controllers"
	"github.com/truetread/truetread-api/middleware"
	"github.com/truetread/truetread-api/models"
	"github.com/truetread/truetread-api/services"
)

func main() {
	log.Println("Starting TrueTread API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := MigrateModels(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	logger.Info("database migration completed")

	storage, err := services.NewS3Storage(cfg)
	if err != nil {
		logger.Fatal("failed to initialize S3 storage", zap.Error(err))
	}

	notifier := services.NewLogNotifier(logger)

	router := SetupRouter(db, cfg, storage, notifier, logger)

	addr := ":" + cfg.Port
	logger.Info("server listening", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// MigrateModels creates or updates the schema for every persisted model.
func MigrateModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Dealer{},
		&models.Profile{},
		&models.AdminUser{},
		&models.Order{},
		&models.OrderPayment{},
		&models.OrderAuditLog{},
		&models.OrderImage{},
	)
}

// SetupRouter wires every route with its middleware. All dependencies are
// passed in explicitly so tests can run the full router against an in-memory
// database and mock storage.
func SetupRouter(db *gorm.DB, cfg *config.Config, storage services.Storage, notifier services.Notifier, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(cors.Default())

	secret := []byte(cfg.JWTSecret)

	orderCtrl := controllers.NewOrderController(db, notifier, logger)
	adminOrderCtrl := controllers.NewAdminOrderController(db, storage, notifier, logger)
	userCtrl := controllers.NewUserController(db, secret, logger)
	dealerCtrl := controllers.NewDealerController(db, secret, logger)
	uploadCtrl := controllers.NewUploadController(db, storage, logger)

	api := router.Group("/api")
	{
		api.GET("/health", healthCheck)

		// Login surfaces
		api.POST("/auth/admin/login", userCtrl.Login)
		api.POST("/auth/dealer/login", dealerCtrl.Login)

		// Dealer onboarding (unauthenticated)
		api.POST("/dealers/register", dealerCtrl.Register)
		api.POST("/dealers/join", dealerCtrl.Join)

		// Dealer portal
		dealer := api.Group("", middleware.RequireDealer(db, secret))
		{
			dealer.POST("/dealers/training/complete", dealerCtrl.CompleteTraining)
			dealer.GET("/dealers/team", dealerCtrl.ListTeam)
			dealer.PATCH("/dealers/team/:profileId/ordering", dealerCtrl.SetOrdering)

			dealer.POST("/orders/create", orderCtrl.CreateOrder)
			dealer.GET("/orders", orderCtrl.ListOrders)
			dealer.POST("/orders/:orderId/images", uploadCtrl.UploadOrderImage)
		}

		// Back office: order lifecycle
		api.POST("/orders/:orderId/status",
			middleware.RequireAdmin(db, secret, models.RoleAdmin, models.RoleProductionManager, models.RoleCustomerService),
			adminOrderCtrl.UpdateStatus)
		api.POST("/orders/:orderId/payment",
			middleware.RequireAdmin(db, secret, models.RoleAdmin, models.RoleCustomerService),
			adminOrderCtrl.RecordPayment)
		api.POST("/orders/:orderId/notes",
			middleware.RequireAdmin(db, secret),
			adminOrderCtrl.AddNote)
		api.DELETE("/orders/:orderId",
			middleware.RequireAdmin(db, secret, models.RoleAdmin),
			adminOrderCtrl.DeleteOrder)

		// Back office: views and exports
		adminView := api.Group("/admin", middleware.RequireAdmin(db, secret))
		{
			adminView.GET("/orders", adminOrderCtrl.ListAllOrders)
			adminView.GET("/orders/export", adminOrderCtrl.ExportOrders)
			adminView.GET("/orders/:orderId", adminOrderCtrl.GetOrder)
			adminView.GET("/users", userCtrl.ListUsers)
		}

		// Back office: user management (admin only)
		adminUsers := api.Group("/admin", middleware.RequireAdmin(db, secret, models.RoleAdmin))
		{
			adminUsers.POST("/users", userCtrl.CreateUser)
			adminUsers.PATCH("/users/:userId", userCtrl.UpdateRole)
			adminUsers.DELETE("/users/:userId", userCtrl.DeactivateUser)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "TrueTread API is running",
	})
}
