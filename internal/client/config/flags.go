package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/statsync/internal/flagx"
)

// flagNames lists every flag parseFlags understands, short and long.
var flagNames = []string{
	"-a", "-server",
	"-d", "-data-root",
	"-b", "-cache-backend",
	"-t", "-token",
	"-u", "-user",
	"-i", "-interval",
	"-l", "-log-level",
	"-log-file",
}

// parseFlags overlays cfg with the flags present in args. Arguments it does
// not know about are left for the command tree.
//
//	-a, -server string        address:port of the sync endpoint
//	-d, -data-root string     directory for cache files
//	-b, -cache-backend string file or sqlite
//	-t, -token string         access token
//	-u, -user int             user id when no token is given
//	-i, -interval int         sync interval in seconds
//	-l, -log-level string     debug, info, warn or error
//	-log-file string          rotate logs into this file
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("statsync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	for _, n := range []string{"a", "server"} {
		fs.StringVar(&cfg.ServerEndpointAddr, n, cfg.ServerEndpointAddr, "address and port of the sync endpoint")
	}
	for _, n := range []string{"d", "data-root"} {
		fs.StringVar(&cfg.DataRoot, n, cfg.DataRoot, "directory for cache files")
	}
	for _, n := range []string{"b", "cache-backend"} {
		fs.StringVar(&cfg.CacheBackend, n, cfg.CacheBackend, "cache backend: file or sqlite")
	}
	for _, n := range []string{"t", "token"} {
		fs.StringVar(&cfg.AccessToken, n, cfg.AccessToken, "access token")
	}
	for _, n := range []string{"u", "user"} {
		fs.IntVar(&cfg.UserID, n, cfg.UserID, "user id when no token is given")
	}
	for _, n := range []string{"l", "log-level"} {
		fs.StringVar(&cfg.LogLevel, n, cfg.LogLevel, "log level")
	}
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file")

	interval := int(cfg.SyncInterval / time.Second)
	for _, n := range []string{"i", "interval"} {
		fs.IntVar(&interval, n, interval, "sync interval (in seconds)")
	}

	if err := fs.Parse(flagx.FilterArgs(args, flagNames)); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" || f.Name == "interval" {
			cfg.SyncInterval = time.Duration(interval) * time.Second
		}
	})
	return nil
}
