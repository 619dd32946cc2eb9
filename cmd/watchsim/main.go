package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CHIDI00/healix/internal/config"
	"github.com/CHIDI00/healix/internal/watch"
)

func main() {
	cfg := config.Load()

	if cfg.WatchToken == "" {
		log.Fatal("WATCH_TOKEN is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Println("watch simulator shutdown requested")
		cancel()
	}()

	device := watch.NewDevice(time.Now().UnixNano())
	syncer := watch.NewSyncer(cfg.WatchAPIURL, cfg.WatchToken)
	service := watch.NewService(device, syncer, cfg.WatchInterval, log.Default())

	log.Printf("watch simulator started (api=%s, interval=%s)", cfg.WatchAPIURL, cfg.WatchInterval)
	if err := service.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("watch simulator error: %v", err)
	}
}
