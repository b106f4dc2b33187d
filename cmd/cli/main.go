package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/pipegrid/internal/app"
	"github.com/vk/pipegrid/internal/cli"
	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/hclcfg"
	"github.com/vk/pipegrid/internal/yamlcfg"
)

// main is the entrypoint for the pipegrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(context.Background(), args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical config errors, so we recover here to provide
	// a clean exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(outW, "A critical startup error occurred: %v\n", r)
			os.Exit(1)
		}
	}()

	pipegridApp := app.New(outW, appConfig, loaderFor(appConfig.PipelinePath))

	return pipegridApp.Run(context.Background(), appConfig)
}

// loaderFor selects the declaration format by file extension. Directories
// default to the HCL loader.
func loaderFor(path string) config.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return yamlcfg.NewLoader()
	default:
		return hclcfg.NewLoader()
	}
}
