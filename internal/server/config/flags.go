package config

import (
	"flag"
	"os"
	"time"

	"github.com/nononsenseapps/linksync/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5500")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-v int      token validity, minutes
//	-g string   GCM endpoint URL
//	-k string   GCM server API key
//	-t int      multicast dispatch timeout, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-v", "-g", "-k", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidityDuration := fs.Int("v", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes)")

	fs.StringVar(&config.GCMEndpoint, "g", config.GCMEndpoint, "GCM endpoint URL")
	fs.StringVar(&config.GCMAPIKey, "k", config.GCMAPIKey, "GCM server API key")

	dispatchTimeout := fs.Int("t", int(config.DispatchTimeout.Seconds()), "dispatch_timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidityDuration) * time.Minute
	config.DispatchTimeout = time.Duration(*dispatchTimeout) * time.Second
}
