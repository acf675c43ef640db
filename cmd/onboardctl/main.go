package main

import (
	"errors"
	"os"

	"github.com/golden-path-k8s/onboardctl/internal/cli"
	"github.com/golden-path-k8s/onboardctl/internal/config"
	"github.com/golden-path-k8s/onboardctl/internal/logging"
)

// main is the entry point for the onboardctl CLI binary.
// Exit codes: 0 on success, 2 on a missing precondition, 1 on any other failure.
func main() {
	logger := logging.NewLogger(os.Stderr, logging.LevelInfo)
	if err := cli.Execute(os.Args[1:], logger); err != nil {
		logger.Error("command failed", "error", err)
		var perr *config.PreconditionError
		if errors.As(err, &perr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
