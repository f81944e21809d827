// Package bootstrap runs the lifecycle of a pspkit service.
//
// An App validates its typed config, initializes the logger, runs configure
// callbacks and start hooks, checks readiness, logs the startup summary and
// blocks until SIGINT or SIGTERM, after which stop hooks run within the
// graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
//	    srv := server.New(&a.Cfg.Server, a.Logger)
//	    a.OnStart(srv.Start)
//	    a.OnStop(srv.Stop)
//	    return nil
//	})
//	if err := app.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package bootstrap
