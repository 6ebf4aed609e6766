package main

import (
	"fmt"
	"os"

	"github.com/komodohub/komodo-hub-backend/internal/app"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "komodo-hub: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	application, err := app.New()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer application.Close()

	if err := application.Start(); err != nil {
		return err
	}
	return application.Run()
}
