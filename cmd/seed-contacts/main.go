// seed-contacts：把 JSON 种子文件（contacts 与可选 locations）写入配置的数据源
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"geocontacts/internal/backend"
	"geocontacts/internal/config"
	"geocontacts/internal/logger"
	"geocontacts/internal/store/memstore"
)

func main() {
	envFile := flag.String("env", ".env", "env file to load")
	file := flag.String("file", "", "seed JSON file")
	flag.Parse()

	_ = godotenv.Load(*envFile)
	l := logger.Setup()
	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: seed-contacts -file seed.json [-env .env]")
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	if cfg.Store.Backend == "memory" {
		l.Error("seed_memory_backend", "reason", "memory store does not outlive this process")
		os.Exit(1)
	}

	b, err := os.ReadFile(*file)
	if err != nil {
		l.Error("seed_read_error", "file", *file, "err", err)
		os.Exit(1)
	}
	var seed memstore.Seed
	if err := json.Unmarshal(b, &seed); err != nil {
		l.Error("seed_decode_error", "file", *file, "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	st, closeStore, err := backend.OpenStore(ctx, cfg.Store)
	if err != nil {
		l.Error("store_open_error", "backend", cfg.Store.Backend, "err", err)
		os.Exit(1)
	}
	defer closeStore(ctx)

	nc, nl, err := backend.ApplySeed(ctx, st, seed)
	if err != nil {
		l.Error("seed_error", "contacts", nc, "locations", nl, "err", err)
		os.Exit(1)
	}
	l.Info("seed_done", "backend", cfg.Store.Backend, "contacts", nc, "locations", nl)
}
