package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"vet-backend/internal/auth"
	"vet-backend/internal/cache"
	"vet-backend/internal/config"
	"vet-backend/internal/database"
	"vet-backend/internal/db"
	"vet-backend/internal/handlers"
	"vet-backend/internal/health"
	apphttp "vet-backend/internal/http"
	"vet-backend/internal/middleware"
	"vet-backend/internal/monitoring"
	"vet-backend/internal/repositories"
	"vet-backend/internal/services"
	"vet-backend/internal/sms"
	"vet-backend/internal/storage"
	"vet-backend/migrations"
)

func main() {
	cfg := config.Load()

	pool := db.Connect(cfg)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	migrator := database.NewMigrator(pool, migrations.Files)
	if err := migrator.RunMigrations(ctx); err != nil {
		cancel()
		log.Fatalf("Migration failed: %v", err)
	}
	cancel()

	if err := cache.Init(); err != nil {
		log.Printf("[Cache] Redis unavailable, running without cache: %v", err)
	}

	jwtManager := auth.NewJWTManager(cfg)

	mediaStore, err := storage.NewMediaStore(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Media store init failed: %v", err)
	}
	if mediaStore == nil {
		log.Printf("[Media] Storage not configured, image uploads disabled")
	}

	smsSender := sms.NewFromEnv()

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	totpRepo := repositories.NewTOTPRepository(pool)
	ownerRepo := repositories.NewOwnerRepository(pool)
	patientRepo := repositories.NewPatientRepository(pool)
	appointmentRepo := repositories.NewAppointmentRepository(pool)
	clinicalRecordRepo := repositories.NewClinicalRecordRepository(pool)
	productRepo := repositories.NewProductRepository(pool)
	lotRepo := repositories.NewLotRepository(pool)
	movementRepo := repositories.NewMovementRepository(pool)
	procedureRepo := repositories.NewProcedureRepository(pool)
	invoiceRepo := repositories.NewInvoiceRepository(pool)
	paymentRepo := repositories.NewPaymentRepository(pool)
	transactionRepo := repositories.NewOnlineTransactionRepository(pool)
	settingRepo := repositories.NewSystemSettingRepository(pool)

	// Services
	userService := services.NewUserService(userRepo, jwtManager)
	totpService := services.NewTOTPService(userRepo, totpRepo)
	ownerService := services.NewOwnerService(ownerRepo)
	patientService := services.NewPatientService(patientRepo, ownerRepo)
	appointmentService := services.NewAppointmentService(appointmentRepo, patientRepo, userRepo)
	productService := services.NewProductService(productRepo, mediaStore)
	inventoryService := services.NewInventoryService(movementRepo, lotRepo, productRepo)
	procedureService := services.NewProcedureService(procedureRepo)
	invoiceService := services.NewInvoiceService(invoiceRepo, paymentRepo, ownerRepo, patientRepo, settingRepo)
	clinicalRecordService := services.NewClinicalRecordService(clinicalRecordRepo, patientRepo, productRepo, movementRepo, invoiceService)
	razorpayService := services.NewRazorpayService(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.WebhookSecret, transactionRepo, invoiceService, settingRepo)
	reportService := services.NewReportService(invoiceRepo, paymentRepo, settingRepo)
	settingService := services.NewSystemSettingService(settingRepo)
	portalService := services.NewPortalService(ownerRepo, patientRepo, appointmentRepo, transactionRepo, invoiceService, jwtManager, smsSender)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, totpService, jwtManager)
	userHandler := handlers.NewUserHandler(userService)
	totpHandler := handlers.NewTOTPHandler(totpService, userService)
	ownerHandler := handlers.NewOwnerHandler(ownerService)
	patientHandler := handlers.NewPatientHandler(patientService)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService)
	clinicalRecordHandler := handlers.NewClinicalRecordHandler(clinicalRecordService)
	productHandler := handlers.NewProductHandler(productService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	procedureHandler := handlers.NewProcedureHandler(procedureService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)
	reportHandler := handlers.NewReportHandler(reportService)
	settingHandler := handlers.NewSystemSettingHandler(settingService)
	razorpayHandler := handlers.NewRazorpayHandler(razorpayService)
	portalHandler := handlers.NewPortalHandler(portalService)
	healthHandler := handlers.NewHealthHandler(health.NewHealthChecker(pool))

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	corsMiddleware := middleware.NewCORS(cfg)

	router := apphttp.NewRouter(
		authHandler,
		userHandler,
		totpHandler,
		ownerHandler,
		patientHandler,
		appointmentHandler,
		clinicalRecordHandler,
		productHandler,
		inventoryHandler,
		procedureHandler,
		invoiceHandler,
		reportHandler,
		settingHandler,
		healthHandler,
		authMiddleware,
	)

	portalRouter := apphttp.NewPortalRouter(
		portalHandler,
		razorpayHandler,
		healthHandler,
		authMiddleware,
	)

	chain := func(h http.Handler) http.Handler {
		return corsMiddleware(middleware.PanicRecovery(middleware.RequestLogging(middleware.MetricsMiddleware(h))))
	}

	// Monitoring dashboard on its own port
	monitoringServer := monitoring.NewMonitoringServer(pool, cfg.Server.MonitoringPort)
	go monitoringServer.Start()

	// Owner portal on its own port
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.PortalPort)
		log.Printf("[Server] Owner portal listening on %s", addr)
		if err := http.ListenAndServe(addr, chain(portalRouter)); err != nil {
			log.Fatalf("Portal server failed: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("[Server] Clinic API listening on %s", addr)
	if err := http.ListenAndServe(addr, chain(router)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
