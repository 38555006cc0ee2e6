package config

import (
	"flag"
	"io"

	"github.com/simplegameutils/sgu/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     listen address (e.g. ":9001")
//	-d string     PostgreSQL DSN
//	-s string     secret key for access-key digests
//	-i string     identity lookup base URL
//	-r string     Redis address for the identity cache ("" disables)
//	-idle dur     idle connection timeout (e.g. "2m")
//	-l string     log level
//
// Arguments that belong to other flag sets (-c/-config) are filtered out first.
func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("sgu-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ListenAddr, "a", cfg.ListenAddr, "address and port to listen on")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	fs.StringVar(&cfg.IdentityURL, "i", cfg.IdentityURL, "identity lookup base URL")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address for the identity cache")
	fs.DurationVar(&cfg.IdleTimeout, "idle", cfg.IdleTimeout, "idle connection timeout")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.Filter(args, "-a", "-d", "-s", "-i", "-r", "-idle", "-l")); err != nil {
		panic(err)
	}
}
