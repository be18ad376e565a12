package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/sirupsen/logrus"
)

// RouteRegistrar is implemented by every HTTP handler in this package.
type RouteRegistrar interface {
	RegisterRoutes(router gin.IRouter)
}

// NewRouter builds the gin engine with recovery and request logging and
// registers the given handlers. With serverTiming set, the engine is wrapped so
// handlers can add Server-Timing metrics.
func NewRouter(logger *logrus.Logger, serverTiming bool, handlers ...RouteRegistrar) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))

	for _, h := range handlers {
		h.RegisterRoutes(router)
	}

	if !serverTiming {
		return router
	}
	return servertiming.Middleware(router, nil)
}
