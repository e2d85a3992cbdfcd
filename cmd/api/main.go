package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/saudemente/clinic-api/internal/config"
	"github.com/saudemente/clinic-api/internal/email"
	authHandler "github.com/saudemente/clinic-api/internal/handler/auth"
	authzHandler "github.com/saudemente/clinic-api/internal/handler/authorization"
	billingHandler "github.com/saudemente/clinic-api/internal/handler/billing"
	doctorHandler "github.com/saudemente/clinic-api/internal/handler/doctor"
	healthHandler "github.com/saudemente/clinic-api/internal/handler/health"
	prometheusHandler "github.com/saudemente/clinic-api/internal/handler/prometheus"
	patientHandler "github.com/saudemente/clinic-api/internal/handler/patient"
	sessionHandler "github.com/saudemente/clinic-api/internal/handler/session"
	teamHandler "github.com/saudemente/clinic-api/internal/handler/team"
	"github.com/saudemente/clinic-api/internal/middleware"
	"github.com/saudemente/clinic-api/internal/repository/postgres"
	"github.com/saudemente/clinic-api/internal/router"
	authService "github.com/saudemente/clinic-api/internal/service/auth"
	authzService "github.com/saudemente/clinic-api/internal/service/authorization"
	billingService "github.com/saudemente/clinic-api/internal/service/billing"
	doctorService "github.com/saudemente/clinic-api/internal/service/doctor"
	eventService "github.com/saudemente/clinic-api/internal/service/event"
	patientService "github.com/saudemente/clinic-api/internal/service/patient"
	reportService "github.com/saudemente/clinic-api/internal/service/report"
	sessionService "github.com/saudemente/clinic-api/internal/service/session"
	teamService "github.com/saudemente/clinic-api/internal/service/team"
	"github.com/saudemente/clinic-api/pkg/auth"
	"github.com/saudemente/clinic-api/pkg/metrics"
	"github.com/saudemente/clinic-api/pkg/security"
	"github.com/saudemente/clinic-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	teamRepo := postgres.NewTeamRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	authzRepo := postgres.NewAuthorizationRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	reportRepo := postgres.NewReportRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Shared infrastructure
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.RefreshSecret, cfg.JWT.ExpiryHours, cfg.JWT.RefreshExpiryHours)
	hasher := security.NewBcryptHasher(0)
	v := validator.New()
	m := metrics.NewMetrics("clinic", "api")
	notifier := email.NewService(cfg.Email)
	eventSvc := eventService.NewService(outboxRepo)

	// Services
	authSvc := authService.NewService(userRepo, jwtSvc, hasher)
	doctorSvc := doctorService.NewService(doctorRepo, teamRepo)
	teamSvc := teamService.NewService(teamRepo, cfg.Billing)
	reportSvc := reportService.NewService(reportRepo, authzRepo, patientRepo, eventSvc, notifier)
	patientSvc := patientService.NewService(patientRepo, doctorRepo, reportRepo, eventSvc)
	authzSvc := authzService.NewService(authzRepo, patientRepo, eventSvc, notifier, reportSvc)
	sessionSvc := sessionService.NewService(sessionRepo, patientRepo)
	billingSvc := billingService.NewService(
		authzRepo, teamRepo, doctorRepo, patientRepo, sessionRepo, ledgerRepo,
		eventSvc, cfg.Billing, m,
	)

	// Handlers
	authMW := middleware.NewAuthMiddleware(jwtSvc)
	promH := prometheusHandler.New()
	routerCfg := router.DefaultConfig()
	respCache := middleware.NewResponseCache(routerCfg.CacheTTL)

	r := router.New(
		authMW,
		authHandler.NewHandler(authSvc),
		doctorHandler.NewHandler(doctorSvc, v),
		teamHandler.NewHandler(teamSvc, v),
		patientHandler.NewHandler(patientSvc, reportSvc, v),
		authzHandler.NewHandler(authzSvc, v),
		sessionHandler.NewHandler(sessionSvc, v),
		billingHandler.NewHandler(billingSvc, respCache),
		healthHandler.NewHandler(db),
		promH,
		respCache,
		routerCfg,
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
