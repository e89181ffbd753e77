package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"twitch-chat-viewer/config"
	"twitch-chat-viewer/display"
	"twitch-chat-viewer/model"
	"twitch-chat-viewer/service"
	"twitch-chat-viewer/telemetry"
	"twitch-chat-viewer/twitch"
)

const envFile = ".env"

func main() {
	created, err := config.EnsureEnvFile(envFile)
	if err != nil {
		log.Fatalf("env file: %v", err)
	}
	if created {
		log.Fatalf("%s created; edit it with your Twitch credentials and restart", envFile)
	}
	if err := config.LoadEnvFile(envFile); err != nil {
		log.Printf("using process environment only: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if cfg.Display.Mode == config.DisplayTUI {
		f, err := tea.LogToFile(cfg.Display.LogFile, "chat-viewer")
		if err != nil {
			log.Fatalf("log file: %v", err)
		}
		defer f.Close()
	}

	telemetry.Init()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	queue := display.NewQueue(cfg.Display.Buffer)
	srv := service.New(cfg, twitch.NewDispatcher(queue, model.DefaultBots))

	if err := srv.Connect(ctx); err != nil {
		log.Fatalf("connect failed: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return telemetry.Serve(gctx, cfg.Metrics.Addr)
		})
	}

	g.Go(func() error {
		defer queue.Close()
		if err := srv.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("chat stream ended: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		defer cancel()
		switch cfg.Display.Mode {
		case config.DisplayPlain:
			return display.NewPrinter(os.Stdout).Run(gctx, queue.Events())
		default:
			return display.NewTUI(queue.Events(), &display.AutoScroll{}, cfg.Twitch.Channel).Run(gctx)
		}
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("chat viewer failed: %v", err)
	}

	log.Println("shutting down...")
}
