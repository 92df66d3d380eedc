package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"

	"github.com/aussiebroadwan/coach/internal/coachctl"
	"github.com/aussiebroadwan/coach/pkg/coachsdk"
)

type config struct {
	URL string `env:"COACH_URL" envDefault:"http://localhost:8080"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse env: %v", err)
	}
	flag.StringVar(&cfg.URL, "url", cfg.URL, "coach service base URL (env COACH_URL)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Unblock the prompt on Ctrl-C so Run can sign out before exiting.
	go func() {
		<-ctx.Done()
		_ = os.Stdin.Close()
	}()

	coachctl.New(coachsdk.NewClient(cfg.URL), os.Stdin, os.Stdout).Run(ctx)
}
