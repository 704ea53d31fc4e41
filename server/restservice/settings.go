package restservice

import "time"

// Settings of the HTTP API server.
type RestAPISettings struct {
	Host            string        `long:"rest-host" description:"The IP to listen on" default:"127.0.0.1" env:"MEILI_REST_HOST"`
	Port            int           `long:"rest-port" description:"The port to listen on for connections" default:"7700" env:"MEILI_REST_PORT"`
	ReadTimeout     time.Duration `long:"rest-read-timeout" description:"The maximum duration before timing out reading the request" default:"30s"`
	WriteTimeout    time.Duration `long:"rest-write-timeout" description:"The maximum duration before timing out writing the response" default:"60s"`
	CleanupTimeout  time.Duration `long:"rest-cleanup-timeout" description:"The waiting period before killing idle connections" default:"10s"`
	GracefulTimeout time.Duration `long:"rest-graceful-timeout" description:"The waiting period before shutting down the server" default:"15s"`
	MaxHeaderSize   int           `long:"rest-max-header-size" description:"The maximum number of bytes the server reads when parsing the request header" default:"1048576"`
}
