// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tomtom215/crmsync/internal/auth"
	"github.com/tomtom215/crmsync/internal/authz"
	"github.com/tomtom215/crmsync/internal/middleware"
)

// Router wires handlers and middleware into a chi route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	authn         *auth.Middleware
	authz         *authz.Middleware
}

// NewRouter creates a router. authorizer may be nil, in which case every
// authenticated caller may use every route.
func NewRouter(handler *Handler, mw *ChiMiddleware, authn *auth.Middleware, authorizer *authz.Middleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	if authn == nil {
		authn = auth.NewMiddleware(auth.ModeNone, nil, WriteError)
	}
	return &Router{handler: handler, chiMiddleware: mw, authn: authn, authz: authorizer}
}

// SetupChi builds the route tree wrapped in an OpenTelemetry handler.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestMetrics())
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.With(APISecurityHeaders()).Get("/health", router.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.Compression)

		r.With(router.chiMiddleware.RateLimitLogin()).Post("/auth/login", router.handler.Login)

		r.Group(func(r chi.Router) {
			r.Use(router.authn.Authenticate)
			if router.authz != nil {
				r.Use(router.authz.Authorize)
			}

			r.Post("/sync", router.handler.TriggerSync)
			r.Get("/sync/status", router.handler.SyncStatus)
			r.Get("/sync/runs", router.handler.SyncRuns)

			r.Get("/contacts", router.handler.ListContacts)
			r.Get("/contacts/stats", router.handler.ContactStats)
			r.Get("/contacts/{email}", router.handler.GetContact)
			r.Patch("/contacts/{email}/stage", router.handler.UpdateStage)

			r.Post("/import/csv", router.handler.ImportCSV)
		})
	})

	return otelhttp.NewHandler(r, "crmsync.api",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return "HTTP " + req.Method
		}),
		otelhttp.WithFilter(func(req *http.Request) bool {
			return req.URL.Path != "/metrics" && req.URL.Path != "/health" && !strings.HasPrefix(req.URL.Path, "/swagger/")
		}),
	)
}
