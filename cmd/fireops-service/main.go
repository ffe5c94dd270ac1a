package main

import (
	"fmt"
	"os"

	"github.com/nurpe/fireops-orders/internal/auth"
	"github.com/nurpe/fireops-orders/internal/config"
	"github.com/nurpe/fireops-orders/internal/db"
	"github.com/nurpe/fireops-orders/internal/excel"
	httphandler "github.com/nurpe/fireops-orders/internal/http"
	"github.com/nurpe/fireops-orders/internal/http/middleware"
	"github.com/nurpe/fireops-orders/internal/job"
	"github.com/nurpe/fireops-orders/internal/logger"
	"github.com/nurpe/fireops-orders/internal/pdf"
	"github.com/nurpe/fireops-orders/internal/repository"
	"github.com/nurpe/fireops-orders/internal/service"
	"github.com/nurpe/fireops-orders/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	store := repository.NewStore(database)
	excelGenerator := excel.NewGenerator()
	pdfGenerator := pdf.NewGenerator()

	fileStorage, err := storage.NewMinIOClient(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init file storage")
	}

	projectService := service.NewProjectService(store, excelGenerator, cfg.Billing, log)
	workOrderService := service.NewWorkOrderService(store, log)
	paymentService := service.NewPaymentService(store, log)
	contractService := service.NewContractService(store, log)
	certificateService := service.NewCertificateService(store, pdfGenerator, fileStorage, log)
	notificationService := service.NewNotificationService(store, log)
	reconciler := service.NewReconciler(store, log)

	scheduler, err := job.StartReconciler(reconciler, cfg.Reconciler.CronSpec, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule reconciler")
	}
	defer scheduler.Stop()

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(
		projectService, workOrderService, paymentService,
		contractService, certificateService, notificationService, log,
	)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting fireops orders service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
