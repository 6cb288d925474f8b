// Package registrar registers the routes of a dynamic-mode manifest on a
// host router at startup.
//
// Each manifest entry names a route module by locator. A Loader resolves
// the locator to a route.Module; the registrar then registers the module's
// GET and POST handlers, wrapped with its per-method middleware, in
// manifest order:
//
//	m, _ := emit.DecodeManifest(data, emit.FormatJSON)
//	r := chi.NewRouter()
//	err := registrar.Register(ctx, r, m, catalog, routepath.DialectChi)
//
// Registrar.Instruments wrap every handler with route-aware telemetry from
// package middleware.
//
// chi.Router satisfies route.Router as is. ServeMux and Gin adapt the
// standard library mux and gin.
//
// gin's tree cannot hold a catch-all beside another segment at the same
// position (users/[id] next to users/[...path]), nor two parameter names at
// one position. Compiling with the gin dialect rejects such tables (E109);
// a manifest registered on gin anyway fails with E142 instead of panicking.
// The generated static Register has no error result, so it relies on the
// compile-time check.
package registrar
