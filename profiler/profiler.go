package profiler

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Endpoint compliant with the pprof tool. It is not protected by any
// authentication mechanism and should be enabled only in development
// environments.
type Profiler struct {
	server   *http.Server
	listener net.Listener
}

// Starts the profiler endpoint on the given host and port. The port 0
// selects a random free port.
func Start(host string, port int) (*Profiler, error) {
	router := chi.NewRouter()
	router.Mount("/debug", middleware.Profiler())

	listener, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, errors.Wrap(err, "cannot listen for the profiler")
	}

	profiler := &Profiler{
		listener: listener,
		server: &http.Server{
			Handler: router,
			// Protection against Slowloris Attack (G112).
			ReadHeaderTimeout: 60 * time.Second,
		},
	}

	go func() {
		err := profiler.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Profiler server failed")
		}
	}()

	log.WithField("address", listener.Addr().String()).Warn("Profiler is listening, it is not protected by any authentication")
	return profiler, nil
}

// Returns the address the profiler listens on.
func (p *Profiler) Addr() string {
	return p.listener.Addr().String()
}

// Stops the profiler.
func (p *Profiler) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("Could not gracefully shut down the profiler")
	}
}
