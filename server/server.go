package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	meilisearch "github.com/Amiequan/meilisearch"
	dbops "github.com/Amiequan/meilisearch/server/database"
	"github.com/Amiequan/meilisearch/profiler"
	"github.com/Amiequan/meilisearch/server/dumper"
	"github.com/Amiequan/meilisearch/server/dumps"
	"github.com/Amiequan/meilisearch/server/indexes"
	"github.com/Amiequan/meilisearch/server/restservice"
	"github.com/Amiequan/meilisearch/server/updates"
)

// Global server state.
type MeiliServer struct {
	Settings *Settings

	DB       *dbops.SQLDB
	Resolver indexes.Resolver
	Updates  updates.Handle

	DumpActor dumps.DumpActorHandle

	// Registry of the exposed metrics. It is nil when the metrics
	// endpoint is disabled.
	MetricsRegistry *prometheus.Registry

	RestAPI *restservice.RestAPI

	// Running profiler or nil if it is disabled.
	Profiler *profiler.Profiler
}

// Initializes the server state: the database, the dump actor and the
// HTTP API.
func NewMeiliServer(settings *Settings) (*MeiliServer, error) {
	server := &MeiliServer{Settings: settings}

	db, err := dbops.NewSQLiteDB(settings.DatabaseSettings)
	if err != nil {
		return nil, err
	}
	server.DB = db
	server.Resolver = indexes.NewResolver(db)
	server.Updates = updates.NewHandle(db)

	var registerer prometheus.Registerer
	var gatherer prometheus.Gatherer
	if settings.GeneralSettings.EnableMetricsEndpoint {
		server.MetricsRegistry = prometheus.NewRegistry()
		server.MetricsRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registerer = server.MetricsRegistry
		gatherer = server.MetricsRegistry
		log.Info("The metrics endpoint is enabled (ensure that it is properly secured)")
	} else {
		log.Warn("The metrics endpoint is disabled (it can be enabled with the -m flag)")
	}

	server.DumpActor = dumps.NewDumpActorHandle(
		settings.DumpSettings,
		server.Resolver,
		server.Updates,
		dumper.NewTaskRunner(),
		registerer,
	)

	server.RestAPI = restservice.NewRestAPI(settings.RestAPISettings, server.DumpActor, gatherer)
	if err := server.RestAPI.Listen(); err != nil {
		server.DumpActor.Close()
		server.DumpActor.Wait()
		server.DB.Close()
		return nil, err
	}

	if port := settings.GeneralSettings.ProfilerPort; port > 0 {
		server.Profiler, err = profiler.Start("", port)
		if err != nil {
			// The server is usable without the profiler.
			log.WithError(err).Warn("Cannot start the profiler")
		}
	}

	log.WithFields(log.Fields{
		"version":    meilisearch.Version,
		"build-date": meilisearch.BuildDate,
		"dumps-dir":  settings.DumpSettings.Path,
		"db-path":    settings.DatabaseSettings.Path,
	}).Info("Started Meilisearch dump server")

	return server, nil
}

// Serves the HTTP API until the server is shut down.
func (s *MeiliServer) Serve() error {
	return s.RestAPI.Serve()
}

// Stops the HTTP API, waits for the running dump and closes the database.
func (s *MeiliServer) Shutdown() {
	log.Info("Shutting down Meilisearch dump server")
	s.RestAPI.Shutdown()
	if s.Profiler != nil {
		s.Profiler.Stop()
	}
	s.DumpActor.Close()
	s.DumpActor.Wait()
	if err := s.DB.Close(); err != nil {
		log.WithError(err).Warn("Cannot close the database")
	}
	log.Info("Meilisearch dump server shut down")
}
