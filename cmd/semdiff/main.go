package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/emenda-labs/semdiff/core/cli"
	"github.com/emenda-labs/semdiff/core/policy"
	golangdriver "github.com/emenda-labs/semdiff/drivers/golang"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		registry: policy.Builtins(),
		newGoDriver: func(logger *slog.Logger) goDriver {
			return golangdriver.NewDriver(logger)
		},
	}

	root := newRootCmd(a)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, cli.ErrThresholdExceeded) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
