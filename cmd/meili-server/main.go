package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	meilisearch "github.com/Amiequan/meilisearch"
	"github.com/Amiequan/meilisearch/server"
	meiliutil "github.com/Amiequan/meilisearch/util"
)

func main() {
	// Setup logging
	meiliutil.SetupLogging()

	command, settings, err := server.NewCLIParser().Parse()
	if err != nil {
		log.WithError(err).Fatal("Invalid settings")
	}
	switch command {
	case server.HelpCommand:
		// The help message is printed by the parser.
		return
	case server.VersionCommand:
		fmt.Println(meilisearch.Version)
		return
	case server.RunCommand:
	default:
		log.Fatalf("Unsupported command %s", command)
	}

	log.Printf("Starting Meilisearch dump server, version %s, build date %s", meilisearch.Version, meilisearch.BuildDate)

	meiliServer, err := server.NewMeiliServer(settings)
	if err != nil {
		log.Fatalf("Unexpected error: %+v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		meiliServer.Shutdown()
	}()

	if err := meiliServer.Serve(); err != nil {
		log.Fatalf("FATAL error: %+v", err)
	}
	// Serve returns once the shutdown started. Wait for it to complete.
	<-shutdownDone
}
