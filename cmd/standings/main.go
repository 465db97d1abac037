package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/arena/internal/standings"
	"github.com/okian/arena/pkg/logger"
)

// Default configuration constants.
const (
	defaultURL     = "http://localhost:8888"
	defaultTimeout = 10 * time.Second
	defaultGames   = 10
)

func main() {
	var (
		baseURL = flag.String("url", defaultURL, "Base URL of the arena service")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		games   = flag.Int("games", defaultGames, "Number of recent games to show (0 to hide)")
	)
	flag.Parse()

	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := standings.NewClient(standings.Config{BaseURL: *baseURL, Timeout: *timeout})
	report, err := client.Fetch(ctx, *games)
	if err != nil {
		logger.Get().Error(ctx, "failed to fetch standings", logger.String("url", *baseURL), logger.Error(err))
		os.Exit(1)
	}
	if err := standings.Render(os.Stdout, report); err != nil {
		logger.Get().Error(ctx, "failed to render standings", logger.Error(err))
		os.Exit(1)
	}
}
