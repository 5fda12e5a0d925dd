// Command awserver runs the simulation REST and WebSocket API server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/yourusername/awsim/internal/config"
	"github.com/yourusername/awsim/pkg/api"
	"github.com/yourusername/awsim/pkg/engine"
	"github.com/yourusername/awsim/pkg/league"
)

const version = "0.1.0"

// settings is everything the server reads from the environment. Command
// line flags override it.
type settings struct {
	Server api.ServerConfig
	Seed   int64 `env:"AWSIM_SEED"` // 0 = random
}

func main() {
	var cfg settings
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line flags
	host := flag.String("host", cfg.Server.Host, "Host to bind to (use 0.0.0.0 for all interfaces)")
	port := flag.Int("port", cfg.Server.Port, "Port to listen on")
	seed := flag.Int64("seed", cfg.Seed, "Random seed for the engine (0 = random)")
	corsOrigin := flag.String("cors-origin", cfg.Server.CORSOrigin, "Access-Control-Allow-Origin value")
	readTimeout := flag.Duration("read-timeout", cfg.Server.ReadTimeout, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", cfg.Server.WriteTimeout, "HTTP write timeout")
	slowWorkers := flag.Int("slow-workers", cfg.Server.MaxSlowWorkers, "Max concurrent sample requests")
	sessionIdle := flag.Duration("session-idle", cfg.Server.SessionIdle, "Drop sessions idle this long (0 = never)")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("AW Simulation Server v%s\n", version)
		os.Exit(0)
	}

	cfg.Server.Host = *host
	cfg.Server.Port = *port
	cfg.Server.CORSOrigin = *corsOrigin
	cfg.Server.ReadTimeout = *readTimeout
	cfg.Server.WriteTimeout = *writeTimeout
	cfg.Server.MaxSlowWorkers = *slowWorkers
	cfg.Server.SessionIdle = *sessionIdle

	// Print startup banner
	log.Printf("AW Simulation Server v%s", version)

	eng, err := engine.NewEngine(engine.Options{Seed: *seed})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	// The league is computed once, before any session can bet on it.
	start := time.Now()
	table, err := league.RunLeague(eng, engine.Roster())
	if err != nil {
		log.Fatalf("Failed to run league: %v", err)
	}
	if w, ok := league.Winner(table); ok {
		log.Printf("League computed in %v (seed %d), winner %s", time.Since(start), eng.Seed(), w.Name)
	}

	// Create and start server
	server := api.NewServer(eng, table, cfg.Server, version)

	if err := server.ListenAndServeWithGracefulShutdown(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
