package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/kestrel-data/docreader/internal/server"
)

func main() {
	app := fx.New(
		server.Module,
		fx.NopLogger,
	)

	startCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()

	if err := app.Start(startCtx); err != nil {
		fmt.Fprintln(os.Stderr, "application startup failed:", err)
		os.Exit(1)
	}

	<-app.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintln(os.Stderr, "application shutdown failed:", err)
	}
}
