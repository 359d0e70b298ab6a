// Package observability provides OpenTelemetry tracing and metrics for
// pullpipe streams.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("pullpipe"))
//	defer tp.Shutdown(ctx)
//
// Stream metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("pullpipe"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewStreamMetrics(observability.Meter("pullpipe"))
//	r, err := stream.Open(ctx, producer, stream.WithMetrics(metrics))
//
// Health checks:
//
//	report := observability.Check(ctx, "pullpipe", version.Short(),
//	    observability.ConduitCheck(),
//	    observability.DirCheck("archive_root", root),
//	)
package observability
