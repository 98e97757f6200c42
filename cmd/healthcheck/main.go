// Command healthcheck probes the readiness of the catalogue server for
// container health checks. It exits 0 when /readyz answers with a 2xx
// status and 1 otherwise.
//
// Usage: healthcheck [server-url]
//
// The server URL defaults to DBAAS_SERVER or http://localhost:8080.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dbaas/databaseinfra/pkg/planclient"
)

func main() {
	cfg := planclient.ClientConfigFromEnv()
	cfg.Timeout = 5 * time.Second
	if len(os.Args) > 1 {
		cfg.BaseURL = os.Args[1]
	}

	if _, err := planclient.NewClient(cfg, nil).Ready(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck failed: %v\n", err)
		os.Exit(1)
	}
}
