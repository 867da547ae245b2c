/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the HTTP surface: unauthenticated viewer
// endpoints polled by the front-of-show page, a trusted confirmation
// endpoint for the hardware bridge, and a JWT-guarded operator surface.
package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/lumenworks/showgate/internal/audit"
	"github.com/lumenworks/showgate/internal/auth"
	"github.com/lumenworks/showgate/internal/clock"
	"github.com/lumenworks/showgate/internal/models"
	"github.com/lumenworks/showgate/internal/showstate"
	"github.com/lumenworks/showgate/internal/speaker"
)

// API exposes HTTP handlers.
type API struct {
	engine             *showstate.Engine
	controller         *speaker.Controller
	gates              *speaker.Gatekeeper
	auditSvc           *audit.Service
	jwtSecret          []byte
	trustedConfirmHost string
	clk                clock.Clock
	logger             zerolog.Logger
}

// New creates the API router wrapper.
func New(engine *showstate.Engine, controller *speaker.Controller, gates *speaker.Gatekeeper, auditSvc *audit.Service, jwtSecret []byte, trustedConfirmHost string, clk clock.Clock, logger zerolog.Logger) *API {
	return &API{
		engine:             engine,
		controller:         controller,
		gates:              gates,
		auditSvc:           auditSvc,
		jwtSecret:          jwtSecret,
		trustedConfirmHost: trustedConfirmHost,
		clk:                clk,
		logger:             logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts all endpoints on the given router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Route("/show", func(r chi.Router) {
			r.Get("/state", a.handleShowState)
			r.Get("/schedule", a.handleShowSchedule)
		})

		r.Route("/speaker", func(r chi.Router) {
			r.Get("/", a.handleSpeakerStatus)
			r.Post("/on", a.handleSpeakerOn)
			r.Post("/confirm", a.handleSpeakerConfirm)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(auth.Middleware(a.jwtSecret))

			pr.Route("/admin/speaker", func(r chi.Router) {
				r.Post("/lock", a.handleSpeakerLock)
				r.Get("/lock", a.handleSpeakerLockStatus)
				r.Get("/events", a.handleSpeakerEvents)
			})
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleShowState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Snapshot(r.Context()))
}

func (a *API) handleShowSchedule(w http.ResponseWriter, r *http.Request) {
	windows := a.engine.ScheduleWindows(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"windows": windows})
}

func (a *API) handleSpeakerStatus(w http.ResponseWriter, r *http.Request) {
	state := a.controller.Status(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"on":                state.Status == models.SpeakerOn,
		"remaining_seconds": state.RemainingSeconds(a.clk.Now()),
	})
}

func (a *API) handleSpeakerOn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Source string `json:"source"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	source := models.SourceViewer
	if body.Source == string(models.SourcePhysical) {
		// The physical button reaches us through the hardware bridge,
		// which shares the trusted confirmation origin.
		if !a.trustedOrigin(r) {
			writeError(w, http.StatusForbidden, "untrusted_origin")
			return
		}
		source = models.SourcePhysical
	}

	req := speaker.Request{
		Source:    source,
		Identity:  clientIP(r),
		RemoteIP:  clientIP(r),
		UserAgent: r.UserAgent(),
	}

	result, err := a.controller.RequestOn(r.Context(), req)
	if err != nil {
		a.logger.Error().Err(err).Msg("speaker dispatch failed")
		writeError(w, http.StatusBadGateway, "dispatch_failed")
		return
	}
	if !result.Success {
		writeJSON(w, http.StatusTooManyRequests, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleSpeakerConfirm(w http.ResponseWriter, r *http.Request) {
	if !a.trustedOrigin(r) {
		writeError(w, http.StatusForbidden, "untrusted_origin")
		return
	}

	var body struct {
		Status string `json:"status"`
		Source string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	source := models.SourceHardware
	if body.Source == string(models.SourcePhysical) {
		source = models.SourcePhysical
	}

	if err := a.controller.Confirm(r.Context(), models.SpeakerStatus(body.Status), source); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleSpeakerLock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Locked bool   `json:"locked"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	operator := ""
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		operator = claims.OperatorID
	}

	if err := a.gates.SetLock(r.Context(), body.Locked, operator, body.Reason); err != nil {
		a.logger.Error().Err(err).Msg("speaker lock update failed")
		writeError(w, http.StatusInternalServerError, "store_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"locked": body.Locked})
}

func (a *API) handleSpeakerLockStatus(w http.ResponseWriter, r *http.Request) {
	lock, err := a.gates.LockStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error")
		return
	}
	writeJSON(w, http.StatusOK, lock)
}

func (a *API) handleSpeakerEvents(w http.ResponseWriter, r *http.Request) {
	if a.auditSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "audit_disabled")
		return
	}

	filter := audit.QueryFilter{
		Kind:   models.SpeakerEventKind(r.URL.Query().Get("kind")),
		Source: models.SpeakerSource(r.URL.Query().Get("source")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = n
		}
	}
	if raw := r.URL.Query().Get("since"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.Since = t
		}
	}

	rows, err := a.auditSvc.Query(r.Context(), filter)
	if err != nil {
		a.logger.Error().Err(err).Msg("speaker event query failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": rows})
}

// trustedOrigin matches the request Origin header exactly against the
// configured hardware bridge origin. An empty configuration trusts
// nothing over HTTP; confirmations then arrive over NATS only.
func (a *API) trustedOrigin(r *http.Request) bool {
	if a.trustedConfirmHost == "" {
		return false
	}
	return r.Header.Get("Origin") == a.trustedConfirmHost
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
