/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server wires configuration, storage, telemetry sources and
// the HTTP surface into one runnable process.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lumenworks/showgate/internal/api"
	"github.com/lumenworks/showgate/internal/audit"
	"github.com/lumenworks/showgate/internal/clock"
	"github.com/lumenworks/showgate/internal/config"
	"github.com/lumenworks/showgate/internal/db"
	"github.com/lumenworks/showgate/internal/events"
	"github.com/lumenworks/showgate/internal/kvstore"
	"github.com/lumenworks/showgate/internal/schedule"
	"github.com/lumenworks/showgate/internal/showstate"
	"github.com/lumenworks/showgate/internal/sources"
	"github.com/lumenworks/showgate/internal/speaker"
	"github.com/lumenworks/showgate/internal/telemetry"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db         *gorm.DB
	store      kvstore.Store
	bus        *events.Bus
	engine     *showstate.Engine
	controller *speaker.Controller
	gates      *speaker.Gatekeeper
	auditSvc   *audit.Service
	api        *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("showgate-api"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
		bus:    events.NewBus(),
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	clk := clock.System{}

	if s.cfg.RedisAddr != "" {
		redisStore := kvstore.NewRedis(kvstore.Config{
			RedisAddr:     s.cfg.RedisAddr,
			RedisPassword: s.cfg.RedisPassword,
			RedisDB:       s.cfg.RedisDB,
		}, s.logger)
		s.store = redisStore
		s.DeferClose(redisStore.Close)
	} else {
		s.logger.Warn().Msg("no redis configured, speaker state and caches are process-local")
		s.store = kvstore.NewMemory()
	}

	profile := config.DefaultProfile()
	if s.cfg.ProfilePath != "" {
		profile, err = config.LoadProfile(s.cfg.ProfilePath)
		if err != nil {
			return fmt.Errorf("load show profile: %w", err)
		}
		s.logger.Info().Str("path", s.cfg.ProfilePath).Msg("show profile loaded")
	}

	httpClient := sources.NewHTTPClient(sources.HTTPConfig{
		ShowQueueURL:    s.cfg.ShowQueueURL,
		PlaybackURL:     s.cfg.PlaybackURL,
		ScheduleURL:     s.cfg.ScheduleURL,
		SourceTimeout:   s.cfg.SourceTimeout,
		ActuatorURL:     s.cfg.ActuatorURL,
		MediaProbeURL:   s.cfg.MediaProbeURL,
		ActuatorTimeout: s.cfg.ActuatorTimeout,
	}, s.logger)

	cached := sources.NewCached(httpClient, httpClient, httpClient, s.store, sources.CacheTTLs{
		ShowQueue: s.cfg.ShowQueueTTL,
		Playback:  s.cfg.PlaybackTTL,
		Schedule:  s.cfg.ScheduleTTL,
	}, s.logger)

	matcher := schedule.NewKeywordMatcher(profile.Labels)
	interp := schedule.NewInterpreter(matcher, profile.Fallback, clk, s.logger)

	thresholds := showstate.Thresholds{
		Hard:        s.cfg.HardLockoutSeconds,
		Warning:     s.cfg.WarningSeconds,
		Buffer:      s.cfg.BufferSeconds,
		DefaultSong: s.cfg.DefaultSongSeconds,
	}
	s.engine = showstate.NewEngine(cached, interp, thresholds, s.cfg.TestMode, clk, s.bus, s.logger)

	s.gates = speaker.NewGatekeeper(s.store, profile.Speaker, s.cfg.SpeakerCooldown, clk, s.logger)

	var probe sources.MediaProbe
	if s.cfg.MediaProbeURL != "" {
		probe = httpClient
	}
	s.controller = speaker.NewController(s.store, httpClient, probe, s.gates, s.cfg.SpeakerDuration, clk, s.bus, s.logger)

	if s.cfg.NATSURL != "" {
		listener, err := speaker.NewConfirmListener(s.cfg.NATSURL, s.cfg.ConfirmSubject, s.controller, s.logger)
		if err != nil {
			return fmt.Errorf("connect speaker confirmation listener: %w", err)
		}
		s.DeferClose(listener.Close)
	}

	s.auditSvc = audit.NewService(database, s.bus, s.logger)

	s.api = api.New(s.engine, s.controller, s.gates, s.auditSvc, []byte(s.cfg.JWTSigningKey), s.cfg.TrustedConfirmHost, clk, s.logger)

	return nil
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.auditSvc.Start(ctx)
	}()

	// A separate metrics listener keeps /metrics off the public port
	// when the deployment wants that split.
	if s.cfg.MetricsBind != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", telemetry.Handler())
		metricsSrv := &http.Server{
			Addr:              s.cfg.MetricsBind,
			Handler:           mux,
			ReadHeaderTimeout: 15 * time.Second,
		}
		s.DeferClose(func() error { return metricsSrv.Close() })

		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.Error().Err(err).Msg("metrics server exited")
			}
		}()
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel != nil {
		s.bgCancel()
	}
	s.bgWG.Wait()
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'; base-uri 'self'")

		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// When MetricsBind is set, /metrics lives on that listener only.
	if s.cfg.MetricsBind == "" {
		s.router.Handle("/metrics", telemetry.Handler())
	}

	s.api.Routes(s.router)
}
