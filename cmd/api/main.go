package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"farmTracker/internal/app"
	"farmTracker/internal/config"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	application, err := app.New(cfg).Init(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ошибка инициализации: %v\n", err)
		os.Exit(1)
	}

	go func() {
		if err := application.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"farm-tracker": application.Shutdown,
		},
	)

	os.Exit(<-wait)
}
