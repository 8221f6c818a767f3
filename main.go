package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"coach-trust-system/handlers"
	"coach-trust-system/middleware"
	"coach-trust-system/models"
	"coach-trust-system/services"
	"coach-trust-system/utils"
	"coach-trust-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // 50MB — evidence documents only
	})

	// Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	r2Ready, err := utils.InitR2()
	if err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}
	if !r2Ready {
		log.Println("⚠️  R2 not configured — evidence documents stored on local disk")
		if err := utils.EnsureEvidenceDir(); err != nil {
			log.Fatal("failed to ensure evidence dir:", err)
		}
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.PlatformUser{},
		&models.RewardGrant{},
		&models.VerificationRecord{},
		&models.EvidenceDocument{},
		&models.HandlePage{},
		&models.Organization{},
		&models.ApprovalRecord{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ledgerService := services.NewLedgerService(db)
	referralService := services.NewReferralService(db, ledgerService)

	// Contact verification is owned by the host's OTP flow; this service
	// only reads the mirrored flags.
	contactCheck := func(externalUserID, channel string) bool {
		var user models.PlatformUser
		if err := db.Where("external_user_id = ?", externalUserID).First(&user).Error; err != nil {
			return false
		}
		switch channel {
		case "phone":
			return user.PhoneVerified
		case "email":
			return user.EmailVerified
		default:
			return false
		}
	}

	verificationService := services.NewVerificationService(db, ledgerService, referralService, contactCheck)
	approvalService := services.NewApprovalService(db, referralService)

	syncServiceURL := os.Getenv("SYNC_SERVICE_URL")
	if syncServiceURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable not set")
	}
	trustServiceToken := os.Getenv("TRUST_SERVICE_TOKEN")
	if trustServiceToken == "" {
		log.Fatal("TRUST_SERVICE_TOKEN environment variable not set")
	}

	syncWorker := workers.NewPlatformUserSyncWorker(db, syncServiceURL, "/api/v1/public/profiles", trustServiceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Platform User Sync Worker...")
		syncWorker.Start(ctx)
	}()

	referralService.StartReconciliationSweep()

	handlers.SetupVerificationRoutes(app, verificationService)
	handlers.SetupApprovalRoutes(app, approvalService)
	handlers.SetupReferralRoutes(app, referralService, ledgerService)

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Platform User Sync Worker running")
	log.Println("✅ Referral reconciliation sweep running (every 10m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
