// Package emit turns a route table into artifacts and delivers them.
//
// Two backends share the router.Table input:
//
//   - StaticEmitter generates Go source with a Register(route.Router)
//     function that registers every exported method of every route, in
//     table order. Route directories must be importable Go packages.
//   - DynamicEmitter produces a Manifest listing each route with the
//     locator of its module. At startup registrar.Register loads the
//     modules one at a time, in table order, and registers only their GET
//     and POST handlers.
//
// Sinks deliver an artifact: FileSink replaces a file atomically,
// CallbackSink hands the bytes to the dev server and S3Sink publishes them.
package emit
