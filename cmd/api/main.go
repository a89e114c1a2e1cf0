package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/app"
	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/handler/attendance"
	audithandler "github.com/jwalitptl/clinic-api/internal/handler/audit"
	"github.com/jwalitptl/clinic-api/internal/handler/auth"
	"github.com/jwalitptl/clinic-api/internal/handler/comment"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	"github.com/jwalitptl/clinic-api/internal/handler/laser"
	"github.com/jwalitptl/clinic-api/internal/handler/payment"
	"github.com/jwalitptl/clinic-api/internal/handler/profile"
	"github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-api/internal/handler/reservation"
	"github.com/jwalitptl/clinic-api/internal/handler/shift"
	"github.com/jwalitptl/clinic-api/internal/handler/user"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/router"
)

//go:generate swag init -g cmd/api/main.go -o docs --parseInternal -d ../../

// @title                      Clinic Reservation API
// @version                    1.0
// @description                Reservations, schedules, laser treatments and payments for a clinic.
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the access token.
func main() {
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	app.SetupLogging(cfg.Log)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	a, err := app.New(cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize services")
	}

	r, err := router.NewRouter(
		router.FromConfig(cfg),
		middleware.NewAuthMiddleware(a.JWT),
		auth.NewHandler(a.Auth),
		health.NewHandler(db),
		prometheus.New(app.MetricsNamespace, a.Registry, a.Registry),
		user.NewHandler(a.Users),
		profile.NewHandler(a.Profiles),
		comment.NewHandler(a.Comments),
		attendance.NewHandler(a.Attendance),
		laser.NewHandler(a.Laser),
		shift.NewHandler(a.Shifts),
		reservation.NewHandler(a.Reservations),
		payment.NewHandler(a.Payments),
		audithandler.NewHandler(a.Audit),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("environment", cfg.Environment).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	a.Close()

	log.Info().Msg("server exited properly")
}
