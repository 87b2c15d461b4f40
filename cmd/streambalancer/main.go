package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hextechpal/streambalancer"
	"github.com/hextechpal/streambalancer/internal/config"
	"github.com/hextechpal/streambalancer/internal/httpapi"
	"github.com/hextechpal/streambalancer/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const usage = `usage: streambalancer [flags] <command>

commands:
  rebalance   run one rebalance pass and print the result
  init        create the consumer group
  publish     add a test message to the stream
  serve       expose the commands over http

flags:
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[0], err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "", "Path to yaml configuration file")
	redisAddr := flag.String("redis", "", "Redis address, overrides the config file")
	stream := flag.String("stream", "", "Stream key, overrides the config file")
	group := flag.String("group", "", "Consumer group, overrides the config file")
	podPrefix := flag.String("pod-prefix", "", "Active pod key prefix, overrides the config file")
	addr := flag.String("addr", "", "Http listen address for serve, overrides the config file")
	message := flag.String("message", "", "Message for publish, random when empty")
	debug := flag.Bool("debug", false, "Enable debug logs")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return errors.New("expected exactly one command")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	overrideString(&cfg.Redis.Addr, *redisAddr)
	overrideString(&cfg.Stream.Key, *stream)
	overrideString(&cfg.Stream.Group, *group)
	overrideString(&cfg.Stream.PodKeyPrefix, *podPrefix)
	overrideString(&cfg.HTTP.Addr, *addr)
	if *debug {
		cfg.Balancer.Debug = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var opts []streambalancer.Option
	reg := prometheus.NewRegistry()
	if flag.Arg(0) == "serve" {
		collector, err := metrics.NewCollector(reg, "")
		if err != nil {
			return err
		}
		opts = append(opts, streambalancer.WithObserver(collector))
	}

	b, err := streambalancer.NewBalancer(cfg.BalancerConfig(), opts...)
	if err != nil {
		return fmt.Errorf("new balancer: %w", err)
	}
	defer b.Close()

	switch flag.Arg(0) {
	case "rebalance":
		res, err := b.Rebalance(ctx)
		if err != nil {
			return err
		}
		return printJSON(res)
	case "init":
		outcome, err := b.InitializeGroup(ctx)
		if err != nil {
			return err
		}
		fmt.Println(outcome)
		return nil
	case "publish":
		id, err := b.Publish(ctx, *message)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	case "serve":
		return serve(ctx, cfg, b, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", flag.Arg(0))
	}
}

func serve(ctx context.Context, cfg *config.Config, b *streambalancer.Balancer, metricsHandler http.Handler) error {
	logger := b.Logger().With().Str("component", "http").Logger()
	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httpapi.NewHandler(b, &logger, metricsHandler),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Listening on %s", cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("Server stopped")
	return nil
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
