package restservice

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/Amiequan/meilisearch/server/dumps"
)

// Runtime information and settings of the HTTP API.
type RestAPI struct {
	Settings *RestAPISettings
	Dumps    dumps.DumpActorHandle
	// Source of the exposed metrics. The metrics endpoint is disabled
	// when it is nil.
	Gatherer prometheus.Gatherer

	HTTPServer  *http.Server
	srvListener net.Listener
	// Address the server actually listens on.
	Host string
	Port int
}

// Constructs the API. The gatherer may be nil.
func NewRestAPI(settings *RestAPISettings, dumpHandle dumps.DumpActorHandle, gatherer prometheus.Gatherer) *RestAPI {
	return &RestAPI{
		Settings: settings,
		Dumps:    dumpHandle,
		Gatherer: gatherer,
	}
}

// Builds the router with all endpoints.
func (r *RestAPI) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.RealIP)
	router.Use(loggingMiddleware)

	router.Post("/dumps", r.createDump)
	router.Get("/dumps/{uid}/status", r.getDumpStatus)
	router.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "available"})
	})

	if r.Gatherer != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{}))
	}
	return router
}

// Creates the listener and the HTTP server. It is a no-op if they were
// already created.
func (r *RestAPI) Listen() error {
	if r.srvListener != nil {
		return nil
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(r.Settings.Host, strconv.Itoa(r.Settings.Port)))
	if err != nil {
		return errors.Wrap(err, "problem occurred while starting to listen using HTTP API")
	}
	addr, ok := listener.Addr().(*net.TCPAddr)
	if ok {
		r.Host = addr.IP.String()
		r.Port = addr.Port
	}
	r.srvListener = listener

	s := r.Settings
	r.HTTPServer = &http.Server{
		Handler:        r.Handler(),
		ReadTimeout:    s.ReadTimeout,
		WriteTimeout:   s.WriteTimeout,
		IdleTimeout:    s.CleanupTimeout,
		MaxHeaderBytes: s.MaxHeaderSize,
	}
	return nil
}

// Serves the API. It blocks until the server is shut down.
func (r *RestAPI) Serve() error {
	if err := r.Listen(); err != nil {
		return err
	}

	log.WithField("address", "http://"+r.srvListener.Addr().String()).Info("Started serving HTTP API")
	if err := r.HTTPServer.Serve(r.srvListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "problem serving")
	}
	log.Info("Stopped serving HTTP API")
	return nil
}

// Shuts the HTTP server down waiting for the pending requests. Listen
// must have returned before it is called.
func (r *RestAPI) Shutdown() {
	log.Info("Stopping HTTP API")
	if r.HTTPServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), r.Settings.GracefulTimeout)
		defer cancel()

		r.HTTPServer.SetKeepAlivesEnabled(false)
		if err := r.HTTPServer.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Could not gracefully shut down the HTTP API")
		}
	}
	log.Info("Stopped HTTP API")
}
