package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jgrants-mcp/internal/config"
	"github.com/kailas-cloud/jgrants-mcp/internal/convert"
	logpkg "github.com/kailas-cloud/jgrants-mcp/internal/logger"
	"github.com/kailas-cloud/jgrants-mcp/internal/metrics"
	"github.com/kailas-cloud/jgrants-mcp/internal/repository/files"
	chiTransport "github.com/kailas-cloud/jgrants-mcp/internal/transport/chi"
	"github.com/kailas-cloud/jgrants-mcp/internal/transport/jgrants"
	"github.com/kailas-cloud/jgrants-mcp/internal/transport/mcp"
	attachmentuc "github.com/kailas-cloud/jgrants-mcp/internal/usecase/attachment"
	contentuc "github.com/kailas-cloud/jgrants-mcp/internal/usecase/content"
	detailuc "github.com/kailas-cloud/jgrants-mcp/internal/usecase/detail"
	healthuc "github.com/kailas-cloud/jgrants-mcp/internal/usecase/health"
	overviewuc "github.com/kailas-cloud/jgrants-mcp/internal/usecase/overview"
	searchuc "github.com/kailas-cloud/jgrants-mcp/internal/usecase/search"
	"github.com/kailas-cloud/jgrants-mcp/internal/version"
)

const (
	transportHTTP  = "http"
	transportStdio = "stdio"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options are the parsed command line.
type options struct {
	transport string
	overrides config.Overrides
	version   bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	var host, filesDir, debugFiles string
	var port int

	flagSet := pflag.NewFlagSet("jgrants-mcp", pflag.ContinueOnError)
	flagSet.StringVar(&opts.transport, "transport", transportHTTP, "MCP transport: http or stdio")
	flagSet.StringVar(&host, "host", "", "bind host for the http transport (default from config)")
	flagSet.IntVar(&port, "port", 0, "bind port for the http transport (default from config)")
	flagSet.StringVar(&filesDir, "files-dir", "", "directory for downloaded attachments (default from config)")
	flagSet.StringVar(&debugFiles, "debug-files", "", "write attachment debug log: 1/0, true/false")
	flagSet.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", extra[0])
	}
	if opts.transport != transportHTTP && opts.transport != transportStdio {
		return options{}, fmt.Errorf("--transport must be %s or %s, got %q", transportHTTP, transportStdio, opts.transport)
	}

	if flagSet.Changed("host") {
		opts.overrides.Host = &host
	}
	if flagSet.Changed("port") {
		opts.overrides.Port = &port
	}
	if flagSet.Changed("files-dir") {
		opts.overrides.FilesDir = &filesDir
	}
	if flagSet.Changed("debug-files") {
		opts.overrides.DebugFiles = &debugFiles
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.version {
		fmt.Println(version.String())
		return nil
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Apply(opts.overrides); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	fileLogger, err := logpkg.NewFileLogger(cfg.Storage.DebugLogPath, bool(cfg.Storage.DebugFiles))
	if err != nil {
		return fmt.Errorf("create file logger: %w", err)
	}
	defer func() { _ = fileLogger.Sync() }()

	logger.Info("Starting jGrants MCP server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("transport", opts.transport),
		zap.String("upstream", cfg.Upstream.BaseURL),
		zap.String("files_dir", cfg.Storage.FilesDir),
		zap.Bool("debug_files", bool(cfg.Storage.DebugFiles)),
	)

	metrics.Register()

	server, err := buildServer(cfg, logger, fileLogger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.transport == transportStdio {
		logger.Info("Serving MCP on stdio")
		if err := server.Run(ctx, os.Stdin, os.Stdout); err != nil {
			return fmt.Errorf("stdio transport: %w", err)
		}
		logger.Info("stdin closed, exiting")
		return nil
	}
	return serveHTTP(ctx, cfg, server, logger)
}

// buildServer is the composition root.
func buildServer(cfg config.Config, logger, fileLogger *zap.Logger) (*mcp.Server, error) {
	store, err := files.New(cfg.Storage.FilesDir, fileLogger)
	if err != nil {
		return nil, fmt.Errorf("open files dir: %w", err)
	}
	logger.Info("attachment store ready", zap.String("root", store.Root()))

	client, err := jgrants.NewClient(jgrants.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		UserAgent:      cfg.Upstream.UserAgent,
		ConnectTimeout: seconds(cfg.Upstream.ConnectTimeoutSec),
		ReadTimeout:    seconds(cfg.Upstream.ReadTimeoutSec),
		WriteTimeout:   seconds(cfg.Upstream.WriteTimeoutSec),
		PoolTimeout:    seconds(cfg.Upstream.PoolTimeoutSec),
		MaxConns:       cfg.Upstream.MaxConnections,
		MaxIdleConns:   cfg.Upstream.MaxKeepalive,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create jgrants client: %w", err)
	}
	api := jgrants.NewAPI(client)

	searchSvc := searchuc.New(api)
	overviewSvc := overviewuc.New(searchSvc, time.Now)
	persister := attachmentuc.New(store, fileLogger)
	detailSvc := detailuc.New(api, persister, time.Now)
	contentSvc := contentuc.New(store, convert.Converter{})
	healthSvc := healthuc.New(version.Version, time.Now)

	return mcp.NewServer(mcp.Services{
		Search:   searchSvc,
		Overview: overviewSvc,
		Detail:   detailSvc,
		Content:  contentSvc,
		Health:   healthSvc,
	}, version.Version, logger), nil
}

func serveHTTP(ctx context.Context, cfg config.Config, server *mcp.Server, logger *zap.Logger) error {
	handler := mcp.NewHTTPHandler(server, cfg.HTTP.MaxSessions, time.Duration(cfg.HTTP.SessionTTLMin)*time.Minute)
	router := chiTransport.NewRouter(handler, healthuc.New(version.Version, time.Now), logger)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           router,
		ReadTimeout:       seconds(cfg.HTTP.ReadTimeoutSec),
		ReadHeaderTimeout: seconds(cfg.HTTP.ReadTimeoutSec),
		WriteTimeout:      seconds(cfg.HTTP.WriteTimeoutSec),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", srv.Addr),
			zap.String("mcp_endpoint", chiTransport.MCPPath),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), seconds(cfg.HTTP.ShutdownSec))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
