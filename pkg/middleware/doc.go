// Package middleware provides route instruments: wrappers applied to every
// handler at registration time, with the route pattern and method known.
//
// This package includes:
//   - OpenTelemetry tracing
//   - Prometheus request metrics
//
// Both plug into route.Instrumented, so they work with generated
// registration code and with the runtime registrar alike.
//
// # OpenTelemetry
//
// Every request starts a server span named after its route:
//
//	r := chi.NewRouter()
//	routes.Register(route.Instrumented(r, middleware.OpenTelemetry()))
//
// Configure with options:
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("shop"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	)
//
// Handlers reach the span through the request context, so database drivers
// and HTTP clients called with r.Context() inherit the trace:
//
//	func ShowGET(w http.ResponseWriter, r *http.Request) {
//	    middleware.SpanFromRequest(r).SetAttributes(attribute.String("user.id", r.PathValue("id")))
//	    row := db.QueryRowContext(r.Context(), "SELECT ...")
//	}
//
// # Prometheus Metrics
//
// Metrics are labeled with the route pattern rather than the request path,
// which keeps cardinality bounded by the route table:
//
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	registrar.Register(ctx, route.Instrumented(r, m.Instrument), manifest, loader, dialect)
//
// Then expose metrics on a separate port:
//
//	http.Handle("/metrics", promhttp.Handler())
//	go http.ListenAndServe(":9090", nil)
package middleware
