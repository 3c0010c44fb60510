// Package api exposes the wizard over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/Previo/internal/imageupload"
	"github.com/dharsanguruparan/Previo/internal/metrics"
	"github.com/dharsanguruparan/Previo/internal/model"
	"github.com/dharsanguruparan/Previo/internal/previo"
)

// Images is the photo endpoint backend.
type Images interface {
	Policy() imageupload.Policy
	Upload(ctx context.Context, req imageupload.Request) (*model.OperationImage, error)
	Delete(ctx context.Context, url string) error
	List(ctx context.Context, op model.OperationType, operationID string, productID *string) ([]model.OperationImage, error)
	ListObjects(ctx context.Context, op model.OperationType, operationID string, productID *string) ([]string, error)
}

// Options configures a Server.
type Options struct {
	Address string
	Metrics *metrics.Metrics
	Log     *logrus.Entry
	// Ready reports dependency health for /healthz. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Server exposes the wizard, photo and previo endpoints.
type Server struct {
	svc     *previo.Service
	images  Images
	metrics *metrics.Metrics
	log     *logrus.Entry
	ready   func(ctx context.Context) error
	addr    string
	server  *http.Server
	once    sync.Once
}

// New constructs a Server.
func New(svc *previo.Service, images Images, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{
		svc:     svc,
		images:  images,
		metrics: opts.Metrics,
		log:     log.WithField("component", "api"),
		ready:   opts.Ready,
		addr:    opts.Address,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux)
	return corsMiddleware(s.loggingMiddleware(mux))
}

func (s *Server) routes(mux *http.ServeMux) {
	s.handle(mux, "GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	s.handle(mux, "GET /catalog", s.handleCatalog)

	s.handle(mux, "POST /sessions", s.handleStart)
	s.handle(mux, "GET /sessions/{id}", s.handleGetSession)
	s.handle(mux, "DELETE /sessions/{id}", s.handleAbandon)
	s.handle(mux, "PUT /sessions/{id}/packaging", s.handlePackaging)
	s.handle(mux, "POST /sessions/{id}/products", s.handleAddProduct)
	s.handle(mux, "DELETE /sessions/{id}/products/{index}", s.handleRemoveProduct)
	s.handle(mux, "PATCH /sessions/{id}/products/current", s.handleUpdateField)
	s.handle(mux, "PUT /sessions/{id}/products/current-index", s.handleSetIndex)
	s.handle(mux, "POST /sessions/{id}/products/validate", s.handleValidateProducts)
	s.handle(mux, "POST /sessions/{id}/photos/{slot}", s.handleAttachPhoto)
	s.handle(mux, "POST /sessions/{id}/save", s.handleSaveForLater)
	s.handle(mux, "POST /sessions/{id}/resume", s.handleResume)
	s.handle(mux, "POST /sessions/{id}/complete", s.handleComplete)
	s.handle(mux, "GET /sessions/{id}/report.pdf", s.handleSessionReport)
	s.handle(mux, "GET /sessions/{id}/report/preview", s.handleSessionPreview)

	s.handle(mux, "POST /images", s.handleImageUpload)
	s.handle(mux, "GET /images", s.handleImageList)
	s.handle(mux, "DELETE /images", s.handleImageDelete)

	s.handle(mux, "GET /previos", s.handleListPrevios)
	s.handle(mux, "GET /previos/{id}", s.handlePrevioDetails)
	s.handle(mux, "GET /previos/{id}/products/{productID}", s.handleProductDetails)
	s.handle(mux, "GET /previos/{id}/report.pdf", s.handlePrevioReport)
	s.handle(mux, "POST /previos/{id}/share", s.handleShare)
	s.handle(mux, "GET /shared/report", s.handleSharedReport)
	s.handle(mux, "GET /reports/{id}", s.handleReportStatus)
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:              s.addr,
			Handler:           s.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.log.WithField("address", s.addr).Info("api listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.log.WithError(err).Warn("health check failed")
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"units":             model.UnitOptions,
		"package_types":     model.PackageTypes,
		"origins":           model.OriginOptions,
		"eu_countries":      model.EUCountries,
		"operation_types":   model.OperationTypes,
		"allowed_mimetypes": s.images.Policy().AllowedTypes,
		"max_image_bytes":   s.images.Policy().MaxBytes,
	})
}
