package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	lib "github.com/theoremus-urban-solutions/fleet-telemetry"
	"github.com/theoremus-urban-solutions/fleet-telemetry/config"
)

func main() {
	mode := flag.String("mode", "serve", "serve|oneshot")
	configPath := flag.String("c", "config.yml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}
	lib.ConfigureLogging(cfg.Log)

	engine, err := lib.NewEngine(cfg)
	if err != nil {
		log.Fatalf("could not build engine: %v", err)
	}

	switch *mode {
	case "oneshot":
		engine.PollAllOnce(context.Background())
		snapshot := engine.GetLiveVehicles()
		buf, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			log.Fatalf("could not marshal snapshot: %v", err)
		}
		fmt.Println(string(buf))
	case "serve":
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		engine.Start(ctx)
		lib.StartServer(engine, cfg.Server.Port)
		lib.HandleGracefulShutdown(engine)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}
