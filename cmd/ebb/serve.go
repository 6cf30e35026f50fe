package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ebb-ui/ebb/examples/blog"
	"github.com/ebb-ui/ebb/pkg/cache"
	"github.com/ebb-ui/ebb/pkg/middleware"
	"github.com/ebb-ui/ebb/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		addr      string
		staticDir string
		delay     time.Duration
		cacheKind string
		s3Bucket  string
		s3Region  string
		tracing   bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the example blog",
		Long: `Serve the example blog application.

The blog renders the same pages under every delivery mode so their
differences can be observed side by side:

  /                        out-of-order
  /home/in-order           in-order
  /home/async              async
  /home/partially-blocked  partially-blocked

The simulated data-source latency (--delay) makes the streaming
behavior visible in a browser. Prometheus metrics are exposed on
/metrics.

Examples:
  ebb serve
  ebb serve --addr=:3000 --delay=250ms
  ebb serve --cache=s3 --s3-bucket=my-bucket --s3-region=us-east-1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(serveOptions{
				addr:      addr,
				staticDir: staticDir,
				delay:     delay,
				cacheKind: cacheKind,
				s3Bucket:  s3Bucket,
				s3Region:  s3Region,
				tracing:   tracing,
				verbose:   verbose,
			})
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Address to listen on")
	cmd.Flags().StringVar(&staticDir, "static", "", "Directory to serve under /static")
	cmd.Flags().DurationVar(&delay, "delay", time.Second, "Simulated data-source latency")
	cmd.Flags().StringVar(&cacheKind, "cache", "memory", "Document cache for async routes: memory, s3, or off")
	cmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "Bucket for the s3 cache")
	cmd.Flags().StringVar(&s3Region, "s3-region", "", "Region for the s3 cache")
	cmd.Flags().BoolVar(&tracing, "trace", false, "Emit OpenTelemetry spans for requests")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	return cmd
}

type serveOptions struct {
	addr      string
	staticDir string
	delay     time.Duration
	cacheKind string
	s3Bucket  string
	s3Region  string
	tracing   bool
	verbose   bool
}

func runServe(opts serveOptions) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, err := newStore(opts)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(middleware.WithRegistry(registry))

	s := server.New(server.Config{
		Logger:  logger,
		Cache:   store,
		Metrics: metrics,
		Static:  server.StaticConfig{Dir: opts.staticDir, Prefix: "/static/"},
	})
	if opts.tracing {
		s.Use(middleware.OpenTelemetry())
	}
	s.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	blog.NewApp(blog.WithDelay(opts.delay)).Register(s)

	srv := &http.Server{
		Addr:    opts.addr,
		Handler: s,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", opts.addr, "cache", opts.cacheKind, "delay", opts.delay)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newStore(opts serveOptions) (cache.Store, error) {
	switch opts.cacheKind {
	case "off":
		return nil, nil
	case "memory":
		return cache.NewMemory(), nil
	case "s3":
		if opts.s3Bucket == "" {
			return nil, errors.New("--cache=s3 requires --s3-bucket")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.s3Region))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return cache.NewS3(s3.NewFromConfig(cfg), opts.s3Bucket), nil
	default:
		return nil, fmt.Errorf("unknown cache %q", opts.cacheKind)
	}
}
