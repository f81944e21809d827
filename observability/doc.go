// Package observability exports what the payment layer does: OTLP traces
// and metrics, Prometheus series for resilience outcomes, and the health
// report types behind /health and /ready.
//
// pspd installs the OTLP providers when telemetry is enabled:
//
//	cfg := observability.DefaultOTLPConfig("pspd")
//	tp, err := observability.InitTracer(ctx, cfg)
//	mp, err := observability.InitMeter(ctx, cfg)
//
// Every psp.Service call is wrapped by StartCall, which opens a psp.call
// span and feeds Metrics. Resilience outcomes reach both backends through
// resilience.MetricsSink implementations:
//
//	otelSink := observability.NewOperationMetrics(mp.Meter("pspd"))
//	promSink := observability.NewPrometheusSink(registry)
//	policies.OnTransition(promSink.ObserveTransition)
//	exec := resilience.NewExecutor(policies, resilience.MultiSink{otelSink, promSink})
package observability
