package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ironsheep/mcp-imagemagick/internal/config"
	"github.com/ironsheep/mcp-imagemagick/internal/converter"
	"github.com/ironsheep/mcp-imagemagick/internal/imaging"
	"github.com/ironsheep/mcp-imagemagick/internal/server"
	"github.com/jessevdk/go-flags"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// shutdownTimeout bounds how long a signal waits for the request in flight.
const shutdownTimeout = 5 * time.Second

// Options are the command-line flags. Set flags override the config file and
// the environment.
type Options struct {
	Config   string `short:"f" long:"config" description:"YAML or TOML configuration file"`
	LogLevel string `short:"l" long:"log-level" description:"debug, info, warn or error"`
	Verify   string `long:"verify" description:"output check after conversion: none, exists, header or decode"`
	Version  bool   `short:"v" long:"version" description:"Print version information"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "mcp-imagemagick"
	parser.LongDescription = "MCP server converting DNG raw images to WebP.\n\n" +
		"It communicates via the MCP protocol over stdin/stdout. Configure it\n" +
		"in your MCP client (e.g., Claude Desktop).\n\n" +
		"Environment variables use the MCP_IMAGEMAGICK_ prefix, for example\n" +
		"MCP_IMAGEMAGICK_LOG_LEVEL=debug."

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if opts.Version {
		fmt.Fprintf(stdout, "mcp-imagemagick %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return 0
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Verify != "" {
		cfg.Verify = opts.Verify
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}

	// stdout carries the protocol; diagnostics go to stderr only.
	logger := newLogger(cfg, stderr)
	logger.Debug("starting", "version", Version, "build_time", BuildTime, "commit", GitCommit, "config_file", cfg.ConfigFile)

	srv := newServer(cfg, logger)

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, stdin, stdout)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("server error", "error", err)
			return 1
		}
		return 0
	case <-ctx.Done():
		logger.Info("shutting down", "reason", context.Cause(ctx))
		// Cancellation kills a running converter; wait for it to be reaped.
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			logger.Warn("request still in flight at exit", "error", err)
		}
		return 0
	}
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newServer wires the backends, registry and tool handler described by cfg.
func newServer(cfg *config.Config, logger *slog.Logger) *server.Server {
	verifier := imaging.NewVerifier(cfg.VerifyMode(), logger)
	convOpts := []converter.Option{
		converter.WithVerifier(verifier),
		converter.WithLogger(logger),
	}

	registry := converter.NewRegistry(logger,
		converter.NewImageMagick(cfg.ImagemagickCommands, convOpts...),
		converter.NewDarktable(cfg.DarktableCommand, convOpts...),
	)
	logger.Info("converters detected", "available", registry.AvailableConverters())

	return server.New(server.NewToolHandler(registry, logger),
		server.WithLogger(logger),
		server.WithVersion(Version),
		server.WithProtocolVersion(cfg.ProtocolVersion),
		server.WithMaxMessageBytes(cfg.MaxMessageBytes),
	)
}
