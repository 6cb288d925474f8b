// Package router compiles a directory of route files into a ranked route
// table.
//
// # File Structure Convention
//
// Routes are defined by Go files beneath the routes directory (app/routes
// by default):
//
//	app/routes/
//	├── index.go            → /
//	├── about.go            → /about
//	├── users/
//	│   ├── index.go        → /users
//	│   ├── [id].go         → /users/:id
//	│   └── [...path].go    → /users/*
//	└── api/
//	    └── health.go       → /api/health
//
// A trailing index component contributes no segment, so users.go and
// users/index.go are a conflict rather than two routes.
//
// # Parameters
//
//	[id]        → :id   (one segment)
//	[...path]   → *     (one or more trailing segments, final position only)
//
// # Route Files
//
// A file is a route when it exports GET or POST. Once included, every
// exported method among GET, POST, PUT, DELETE, PATCH, HEAD and OPTIONS is
// part of the route:
//
//	func GET(w http.ResponseWriter, r *http.Request)
//	func DELETE(w http.ResponseWriter, r *http.Request)
//	var Middleware = route.MethodMiddleware{route.DELETE: {requireAdmin}}
//
// Files without GET or POST (shared helpers, types) are skipped silently.
//
// # Ranking
//
// The table is ordered most specific first: all-static routes before routes
// with a parameter, catch-alls last; deeper routes before shallower ones;
// then by pattern. Registering routes in table order is enough to give any
// first-match router the right precedence.
//
// # Usage
//
//	c, err := router.NewCompiler(router.Options{
//	    FS:   osfs.New("."),
//	    Root: "app/routes",
//	})
//	table, err := c.Compile(ctx)
//
//	r, params, ok := table.Lookup("/users/42")
//	// r.Pattern == "/users/:id", params["id"] == "42"
package router
