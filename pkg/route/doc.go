// Package route holds the types shared by generated registration code, the
// runtime registrar and route modules.
//
// A route file exports one handler per HTTP method it serves, named after the
// method token:
//
//	func GET(w http.ResponseWriter, r *http.Request)  { ... }
//	func POST(w http.ResponseWriter, r *http.Request) { ... }
//
//	var Middleware = route.MethodMiddleware{
//	    route.POST: {requireAuth},
//	}
//
// Files that share a Go package prefix their exports instead (UsersGET,
// UsersMiddleware).
package route
