// Command clipserver runs the gofibs REST and WebSocket API server and,
// if an address is configured, the TCP session relay.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/gofibs/internal/config"
	"github.com/yourusername/gofibs/internal/logging"
	"github.com/yourusername/gofibs/pkg/api"
	"github.com/yourusername/gofibs/pkg/relay"
	"github.com/yourusername/gofibs/pkg/store"
)

const version = "0.1.0"

func main() {
	// Command line flags; they override the configuration file and environment.
	cfgFile := flag.String("config", "", "YAML configuration file")
	host := flag.String("host", "", "Host to bind to (use 0.0.0.0 for all interfaces)")
	port := flag.Int("port", 0, "Port to listen on")
	relayAddr := flag.String("relay", "", "Address of the TCP session relay, e.g. :4321")
	redisURL := flag.String("redis", "", "Redis URL of the match archive, e.g. redis://localhost:6379/0")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("gofibs API server v%s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *redisURL != "" {
		cfg.Redis.URL = *redisURL
	}
	if *relayAddr != "" {
		cfg.Relay.Addr = *relayAddr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var archive *store.Store
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		archive, err = store.Open(ctx, cfg.Redis.URL,
			store.WithPrefix(cfg.Redis.Prefix),
			store.WithTTL(cfg.Redis.TTL),
			store.WithLogger(log.Named("store")))
		cancel()
		if err != nil {
			log.Fatal("cannot open match archive", zap.Error(err))
		}
		defer archive.Close()
	}

	server := api.NewServer(api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxFastWorkers:  cfg.Server.MaxFastWorkers,
		MaxSlowWorkers:  cfg.Server.MaxSlowWorkers,
	}, version, archive, log.Named("api"))

	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	if cfg.Relay.Addr != "" {
		r := relay.NewServer(relay.Options{Name: cfg.Session.Name, Archive: archive}, log.Named("relay"))
		go func() {
			defer close(relayDone)
			if err := r.ListenAndServe(relayCtx, cfg.Relay.Addr); err != nil {
				log.Error("relay error", zap.Error(err))
			}
		}()
	} else {
		close(relayDone)
	}

	err = server.ListenAndServeWithGracefulShutdown()
	stopRelay()
	<-relayDone
	if err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
