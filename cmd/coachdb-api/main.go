package main

import (
	"fmt"
	"os"

	"coachdb/internal/api"
	"coachdb/internal/config"
	"coachdb/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	server := api.NewServer(db)
	fmt.Printf("serving coach database api on %s\n", cfg.APIListenAddr)
	must(server.Run(cfg.APIListenAddr))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
