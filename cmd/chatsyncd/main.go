package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"chatsync/internal/app"
	"chatsync/pkg/config"
	"chatsync/pkg/logger"
	"chatsync/pkg/shutdown"
)

// build metadata, set via ldflags during release
var version = "dev"

func main() {
	_ = godotenv.Load(".env")
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()

	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])
	cfg, backendKeys, signingKeys, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	// explicit flags win over env and config file
	addr := cfg.Addr()
	if setFlags["addr"] {
		addr = addrVal
	}
	dbPath := cfg.Server.DBPath
	if setFlags["db"] || dbPath == "" {
		dbPath = dbVal
	}

	var sources []string
	if setFlags["addr"] || setFlags["db"] || setFlags["config"] {
		sources = append(sources, "flags")
	}
	if envUsed {
		sources = append(sources, "env")
	}
	sources = append(sources, cfgPath)

	a, err := app.New(cfg, addr, dbPath, joinSources(sources), version, backendKeys, signingKeys)
	if err != nil {
		shutdown.Abort("startup failed", err, dbPath)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	runErr := a.Run(ctx)
	a.Shutdown()
	if runErr != nil {
		shutdown.Abort("server failed", runErr, dbPath)
	}
}

func joinSources(srcs []string) string {
	out := ""
	for i, s := range srcs {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
