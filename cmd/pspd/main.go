// Command pspd serves the PSP REST API over the configured providers.
//
// Configuration is read from config.yml and .env in the standard locations
// (see config.LoadConfig) or from the file named by -config. Every key can
// be overridden by an environment variable such as PSP_PROVIDER or
// SERVER_PORT.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kbukum/pspkit/bootstrap"
	"github.com/kbukum/pspkit/config"
	"github.com/kbukum/pspkit/observability"
	"github.com/kbukum/pspkit/psp/rest"
	"github.com/kbukum/pspkit/resilience"
	"github.com/kbukum/pspkit/server"
	"github.com/kbukum/pspkit/server/endpoint"
	"github.com/kbukum/pspkit/server/middleware"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configFile := flag.String("config", "", "path to config.yml")
	envFile := flag.String("env", "", "path to .env")
	flag.Parse()

	cfg := defaultConfig()
	var opts []config.LoaderOption
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}
	if err := config.LoadConfig("pspd", cfg, opts...); err != nil {
		fmt.Fprintf(os.Stderr, "pspd: %v\n", err)
		os.Exit(1)
	}
	if cfg.Version == "" {
		cfg.Version = version
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pspd: %v\n", err)
		os.Exit(1)
	}
	app.OnConfigure(configure)

	if err := app.Run(context.Background()); err != nil {
		app.Logger.Fatal("pspd failed", map[string]interface{}{"error": err.Error()})
	}
}

// configure builds telemetry, the payment layer and the HTTP server, and
// registers their start and stop hooks.
func configure(ctx context.Context, app *bootstrap.App[*Config]) error {
	cfg := app.Cfg

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promSink := observability.NewPrometheusSink(promRegistry)
	sink := resilience.MultiSink{promSink}

	var restOpts []rest.Option
	if err := initTelemetry(ctx, app, &sink, &restOpts); err != nil {
		return err
	}

	stack, err := newPSP(ctx, cfg.PSP, sink, app.Logger, restOpts...)
	if err != nil {
		return err
	}
	stack.registry.OnTransition(promSink.ObserveTransition)
	app.AddHealthCheck(stack.handler.HealthCheckers()...)
	app.OnStop(stack.manager.CloseAll)

	srv := newServer(cfg, app, stack, promRegistry)
	app.OnStart(srv.Start)
	app.OnStop(srv.Stop)
	app.OnReady(func(ctx context.Context) error {
		srv.TrackRoutes(app.Summary)
		def := stack.router.Default()
		for _, a := range stack.router.All() {
			app.Summary.RegisterProvider(a.Name(), a.Name() == def, a.IsAvailable(ctx))
		}
		return nil
	})
	return nil
}

// initTelemetry starts the OTLP tracer and meter when enabled. The OTel
// operation sink joins sink and request metrics are added to the REST
// handler options.
func initTelemetry(ctx context.Context, app *bootstrap.App[*Config], sink *resilience.MultiSink, restOpts *[]rest.Option) error {
	cfg := app.Cfg
	oc := observability.DefaultOTLPConfig(cfg.Name)
	oc.ServiceVersion = cfg.Version
	oc.Environment = cfg.Environment
	oc.Endpoint = cfg.Telemetry.Endpoint
	oc.Insecure = cfg.Telemetry.Insecure
	oc.SampleRate = cfg.Telemetry.SampleRate

	if cfg.Telemetry.Tracing {
		tp, err := observability.InitTracer(ctx, oc)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		app.OnStop(tp.Shutdown)
	}

	if cfg.Telemetry.Metrics {
		mp, err := observability.InitMeter(ctx, oc)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		app.OnStop(mp.Shutdown)

		meter := mp.Meter(cfg.Name)
		*sink = append(*sink, observability.NewOperationMetrics(meter))
		metrics, err := observability.NewMetrics(meter)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		*restOpts = append(*restOpts, rest.WithMetrics(metrics))
	}
	return nil
}

// newServer mounts the default endpoints and the PSP API, rate limited per
// client IP when server.rate_limit is set.
func newServer(cfg *Config, app *bootstrap.App[*Config], stack *pspStack, gatherer prometheus.Gatherer) *server.Server {
	srv := server.New(cfg.Server, app.Logger)
	checkers := endpoint.Checkers(stack.handler.HealthCheckers()...)
	srv.ApplyDefaults(cfg.Name, cfg.Version, checkers, gatherer)

	api := srv.GinEngine().Group(cfg.PSP.BasePath)
	if cfg.Server.RateLimit != nil {
		api.Use(middleware.GinWrap(middleware.RateLimit(middleware.RateLimitConfig{Limiter: *cfg.Server.RateLimit})))
	}
	stack.handler.Register(api)
	app.Summary.SetAPIPrefix(cfg.PSP.BasePath)
	return srv
}
