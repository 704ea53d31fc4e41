package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	meilisearch "github.com/Amiequan/meilisearch"
	"github.com/Amiequan/meilisearch/client"
	dbops "github.com/Amiequan/meilisearch/server/database"
	"github.com/Amiequan/meilisearch/server/dumps"
	meiliutil "github.com/Amiequan/meilisearch/util"
)

// Prints the dump record as indented JSON.
func printDumpInfo(writer io.Writer, info *dumps.DumpInfo) error {
	data, err := json.MarshalIndent(info, "", "    ")
	if err != nil {
		return errors.Wrap(err, "cannot serialize the dump status")
	}
	_, err = fmt.Fprintln(writer, string(data))
	return errors.WithStack(err)
}

// Creates the API client from the global flags.
func newClient(c *cli.Context) *client.DumpClient {
	dumpClient := client.NewDumpClient(c.String("url"))
	dumpClient.SetRequestTimeout(c.Duration("request-timeout"))
	return dumpClient
}

// Execute create-dump command. It requests a new dump and optionally waits
// until it finishes.
func runCreateDump(c *cli.Context) error {
	dumpClient := newClient(c)
	info, err := dumpClient.CreateDump(c.Context)
	if err != nil {
		return err
	}
	log.WithField("uid", info.UID).Info("Dump accepted")

	if c.Bool("wait") {
		info, err = dumpClient.WaitForDump(c.Context, info.UID, c.Duration("interval"), c.Duration("timeout"))
		if err != nil {
			return err
		}
	}

	if err := printDumpInfo(c.App.Writer, info); err != nil {
		return err
	}
	if info.Status == dumps.DumpStatusFailed {
		return errors.Errorf("dump %s failed: %s", info.UID, info.Error)
	}
	return nil
}

// Execute dump-status command.
func runDumpStatus(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one argument: the dump uid")
	}
	info, err := newClient(c).GetDumpStatus(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	return printDumpInfo(c.App.Writer, info)
}

// Execute db-migrate command. It brings the database schema to the latest
// version.
func runDBMigrate(c *cli.Context) error {
	settings := &dbops.DatabaseSettings{Path: c.String("db-path")}
	db, err := dbops.NewSQLiteDB(settings)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := dbops.CurrentVersion(db)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "Database schema version: %d\n", version)
	return errors.WithStack(err)
}

// Prepares the CLI application.
func setupApp() *cli.App {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "Print the version",
	}

	apiFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "url",
			Usage:   "The URL of the Meilisearch dump server",
			Value:   "http://127.0.0.1:7700",
			EnvVars: []string{"MEILI_URL"},
		},
		&cli.DurationFlag{
			Name:  "request-timeout",
			Usage: "The timeout of a single HTTP request",
			Value: 30 * time.Second,
		},
	}

	createDumpFlags := append([]cli.Flag{
		&cli.BoolFlag{
			Name:  "wait",
			Usage: "Wait until the dump finishes",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "The interval between the status checks while waiting",
			Value: time.Second,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "The maximum waiting time",
			Value: time.Hour,
		},
	}, apiFlags...)

	app := &cli.App{
		Name:  "Meilisearch Tool",
		Usage: "A tool for managing the Meilisearch dumps.",
		Description: `The tool operates in two areas:

   - Dump Management - it allows for requesting new dumps and checking
     their status over the HTTP API;

   - Database Migration - it brings the local database schema to the
     latest version.`,
		Version:  meilisearch.Version,
		HelpName: "meili-tool",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "",
				Usage:   "Logging level can be specified using env variable only. Allowed values: are DEBUG, INFO, WARN, ERROR",
				Value:   "INFO",
				EnvVars: []string{meiliutil.LogLevelEnvironmentVariable},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "create-dump",
				Usage:     "Request a new dump",
				UsageText: "meili-tool create-dump [--wait] [--url URL]",
				Flags:     createDumpFlags,
				Category:  "Dump Management",
				Action:    runCreateDump,
			},
			{
				Name:      "dump-status",
				Usage:     "Show the status of the dump",
				UsageText: "meili-tool dump-status [--url URL] UID",
				Flags:     apiFlags,
				Category:  "Dump Management",
				Action:    runDumpStatus,
			},
			{
				Name:      "db-migrate",
				Usage:     "Migrate the database schema to the latest version",
				UsageText: "meili-tool db-migrate [--db-path PATH]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db-path",
						Usage:   "The directory where the database files are stored",
						Value:   "data.ms",
						EnvVars: []string{"MEILI_DB_PATH"},
					},
				},
				Category: "Database Migration",
				Action:   runDBMigrate,
			},
		},
	}

	return app
}

func main() {
	// Setup logging
	meiliutil.SetupLogging()

	app := setupApp()
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
