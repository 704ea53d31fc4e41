package meiliutil

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Name of the environment variable used to select the logging level.
const LogLevelEnvironmentVariable = "MEILI_LOG_LEVEL"

// Returns current time in UTC.
func UTCNow() time.Time {
	return time.Now().UTC()
}

// Setup the logging. The level is read from the MEILI_LOG_LEVEL variable
// (DEBUG, INFO, WARN, ERROR). It defaults to INFO.
func SetupLogging() {
	log.SetLevel(parseLogLevel(os.Getenv(LogLevelEnvironmentVariable)))
	log.SetOutput(os.Stdout)
	log.SetReportCaller(true)
	log.SetFormatter(&log.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			// Grab filename and line of current frame and add it to log entry
			_, filename := path.Split(f.File)
			return "", fmt.Sprintf("%20v:%-5d", filename, f.Line)
		},
	})
}

// Converts the level name to the logrus level. Unknown or empty values
// fall back to the INFO level.
func parseLogLevel(value string) log.Level {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "DEBUG":
		return log.DebugLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Returns the URL of the host with port and the HTTP scheme.
func HostWithPortURL(address string, port int64) string {
	return fmt.Sprintf("http://%s:%d", address, port)
}
