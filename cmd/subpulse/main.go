package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/subpulse/internal/models"
)

const (
	exitError       = 1
	exitNoContent   = 2
	noContentNotice = "no content to analyze"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err == nil {
		return
	}
	stop()
	if errors.Is(err, models.ErrEmptyCorpus) {
		fmt.Fprintln(os.Stderr, noContentNotice)
		os.Exit(exitNoContent)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(exitError)
}
