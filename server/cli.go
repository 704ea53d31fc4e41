package server

import (
	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	dbops "github.com/Amiequan/meilisearch/server/database"
	"github.com/Amiequan/meilisearch/server/dumps"
	"github.com/Amiequan/meilisearch/server/restservice"
	meiliutil "github.com/Amiequan/meilisearch/util"
)

// The passed command to the server by the CLI.
type Command string

// Valid commands supported by the server.
const (
	// None command provided.
	NoneCommand Command = "none"
	// Run the server.
	RunCommand Command = "run"
	// Show help message.
	HelpCommand Command = "help"
	// Show version.
	VersionCommand Command = "version"
)

// Read environment file settings. It's parsed before the main settings.
type EnvironmentFileSettings struct {
	EnvFile    string `long:"env-file" description:"Environment file location; applicable only if the use-env-file is provided" default:"/etc/meilisearch/server.env"`
	UseEnvFile bool   `long:"use-env-file" description:"Read the environment variables from the environment file"`
}

// General server settings.
type GeneralSettings struct {
	EnvironmentFileSettings
	Version               bool `short:"v" long:"version" description:"Show software version"`
	EnableMetricsEndpoint bool `short:"m" long:"metrics" description:"Enable Prometheus /metrics endpoint (no auth)" env:"MEILI_ENABLE_METRICS"`
	ProfilerPort          int  `long:"profiler-port" description:"Start the pprof endpoint on the given port; it is disabled if zero (no auth, development only)" env:"MEILI_PROFILER_PORT"`
}

// Groups all server settings.
type Settings struct {
	GeneralSettings  *GeneralSettings
	RestAPISettings  *restservice.RestAPISettings
	DumpSettings     *dumps.DumpSettings
	DatabaseSettings *dbops.DatabaseSettings
}

// Constructs a new settings instance.
// The members must be initialized because the go-flags library requires
// non-empty pointers.
func newSettings() *Settings {
	return &Settings{
		GeneralSettings:  &GeneralSettings{},
		RestAPISettings:  &restservice.RestAPISettings{},
		DumpSettings:     &dumps.DumpSettings{},
		DatabaseSettings: &dbops.DatabaseSettings{},
	}
}

// Server-specific CLI arguments/flags parser.
type CLIParser struct {
	shortDescription string
	longDescription  string
}

// Constructs CLI parser.
func NewCLIParser() *CLIParser {
	return &CLIParser{
		shortDescription: "Meilisearch dump server",
		longDescription: `Meilisearch dump server creates the dumps of the indexes and their update logs

The server logs on INFO level by default. Other levels can be configured using the
MEILI_LOG_LEVEL variable. Allowed values are: DEBUG, INFO, WARN, ERROR.`,
	}
}

// Parse the command line arguments into the settings structures.
// First, it parses the settings related to an environment file and if the file
// is provided, the content is loaded. Next, it parses all other flags.
func (p *CLIParser) Parse() (command Command, settings *Settings, err error) {
	command = NoneCommand

	envFileSettings, err := p.parseEnvironmentFileSettings()
	if err != nil {
		return
	}

	err = p.loadEnvironmentFile(envFileSettings)
	if err != nil {
		return
	}

	settings, err = p.parseSettings()
	if err != nil {
		if isHelpRequest(err) {
			return HelpCommand, nil, nil
		}
		return NoneCommand, nil, err
	}

	if settings.GeneralSettings.Version {
		// If user specified --version or -v, print the version and quit.
		return VersionCommand, nil, nil
	}

	return RunCommand, settings, nil
}

// Check if a given error is a request to display the help.
func isHelpRequest(err error) bool {
	var flagsError *flags.Error
	if errors.As(err, &flagsError) {
		if flagsError.Type == flags.ErrHelp {
			return true
		}
	}
	return false
}

// Parses the CLI flags related to the environment file.
func (p *CLIParser) parseEnvironmentFileSettings() (*EnvironmentFileSettings, error) {
	envFileSettings := &EnvironmentFileSettings{}
	parser := flags.NewParser(envFileSettings, flags.IgnoreUnknown)
	parser.ShortDescription = p.shortDescription
	parser.LongDescription = p.longDescription

	if _, err := parser.Parse(); err != nil {
		err = errors.Wrap(err, "invalid CLI argument")
		return nil, err
	}
	return envFileSettings, nil
}

// Loads the environment file content to the environment dictionary of the
// current process.
func (p *CLIParser) loadEnvironmentFile(envFileSettings *EnvironmentFileSettings) error {
	if !envFileSettings.UseEnvFile {
		// Nothing to do.
		return nil
	}

	err := meiliutil.LoadEnvironmentFileToSetter(
		envFileSettings.EnvFile,
		meiliutil.NewProcessEnvironmentVariableSetter(),
	)
	if err != nil {
		err = errors.WithMessagef(err, "invalid environment file: '%s'", envFileSettings.EnvFile)
		return err
	}

	// Reconfigures logging using new environment variables.
	meiliutil.SetupLogging()

	return nil
}

// Parses all CLI flags.
func (p *CLIParser) parseSettings() (*Settings, error) {
	settings := newSettings()

	parser := flags.NewParser(settings.GeneralSettings, flags.Default)
	parser.ShortDescription = p.shortDescription
	parser.LongDescription = p.longDescription

	groups := []struct {
		name string
		data any
	}{
		{"Database Flags", settings.DatabaseSettings},
		{"Dump Flags", settings.DumpSettings},
		{"HTTP Server Flags", settings.RestAPISettings},
	}
	for _, group := range groups {
		if _, err := parser.AddGroup(group.name, "", group.data); err != nil {
			return nil, errors.Wrapf(err, "cannot add the %s group", group.name)
		}
	}

	// Do args parsing.
	if _, err := parser.Parse(); err != nil {
		err = errors.Wrap(err, "cannot parse the CLI flags")
		return nil, err
	}

	if settings.DumpSettings.Concurrency < 1 {
		return nil, errors.Errorf("the dump concurrency must be positive, got %d", settings.DumpSettings.Concurrency)
	}

	return settings, nil
}
