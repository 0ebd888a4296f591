// Package admin implements the loopback-only operator HTTP surface: rule
// listing, in-flight request count, and recent audit entries. This is a
// wholly separate listener from the command-execution transport
// (internal/wire) — it never sits on the path by which an output frame
// reaches a client, so it cannot bypass the ACL check.
package admin

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/duskcore/remctld/internal/audit"
	"github.com/duskcore/remctld/internal/dispatch"
	"github.com/duskcore/remctld/internal/ruleset"
)

// Server is the admin HTTP API: Recovery -> dev-mode CORS -> security
// headers -> request-id -> request logger -> routes.
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New builds the admin API bound to addr (expected to be loopback-only,
// e.g. "127.0.0.1:8222"). devCORS gates the dev-mode CORS middleware.
func New(addr string, table *ruleset.Table, d *dispatch.Dispatcher, sink audit.Sink, log *zap.Logger, devCORS bool) *Server {
	log = log.Named("admin")
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})

	r.Use(gin.Recovery())

	if devCORS {
		r.Use(cors.New(cors.Config{
			AllowOrigins: []string{"http://localhost:5173"},
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"X-Request-ID"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.Use(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	}))

	r.Use(RequestID())
	r.Use(zapLogger(log))

	r.GET("/api/rules", listRulesHandler(table))
	r.GET("/api/inflight", inflightHandler(d))
	r.GET("/api/audit/recent", recentAuditHandler(sink))

	return &Server{
		router: r,
		http: &http.Server{
			Addr:           addr,
			Handler:        r,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 15,
			ErrorLog:       zap.NewStdLog(log.WithOptions(zap.AddCallerSkip(1))),
		},
	}
}

// ListenAndServe runs the admin API until it errors or is shut down.
func (s *Server) ListenAndServe() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
