package registrar

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vango-dev/routec/pkg/route"
)

// ServeMux adapts an http.ServeMux. Use it with the mux dialect so path
// parameters are available from Request.PathValue.
func ServeMux(mux *http.ServeMux) route.Router {
	return serveMux{mux}
}

type serveMux struct {
	mux *http.ServeMux
}

func (s serveMux) Method(method, pattern string, h http.Handler) {
	s.mux.Handle(method+" "+pattern, h)
}

// Gin adapts a gin router or group. Use it with the gin dialect. Path
// parameters are copied to Request.PathValue, with the leading slash of a
// catch-all value removed.
func Gin(r gin.IRoutes) route.Router {
	return ginRouter{r}
}

type ginRouter struct {
	r gin.IRoutes
}

func (g ginRouter) Method(method, pattern string, h http.Handler) {
	g.r.Handle(method, pattern, func(c *gin.Context) {
		req := c.Request
		for _, p := range c.Params {
			req.SetPathValue(p.Key, strings.TrimPrefix(p.Value, "/"))
		}
		h.ServeHTTP(c.Writer, req)
	})
}
