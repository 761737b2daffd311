package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// ReadyCheck reports whether a dependency can serve traffic.
type ReadyCheck func(ctx context.Context) error

type Options struct {
	Rooms          roomsService
	Bookings       bookingsService
	Logger         *zap.Logger
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
	ReadyChecks    map[string]ReadyCheck
}

// NewRouter builds the gin engine with every route and middleware installed.
func NewRouter(opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "http"))
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 10
	}
	if opts.RateLimitBurst < 1 {
		opts.RateLimitBurst = 20
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestContext(log))
	r.Use(accessLog())
	r.Use(corsMiddleware(opts.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", readiness(opts.ReadyChecks))

	h := &handlers{rooms: opts.Rooms, bookings: opts.Bookings}
	api := r.Group("/api/v1")
	api.Use(rateLimit(newIPLimiters(opts.RateLimitRPS, opts.RateLimitBurst)))
	{
		api.GET("/rooms", h.listRooms)
		api.POST("/rooms", h.createRoom)
		api.GET("/rooms/:id", h.getRoom)
		api.POST("/rooms/:id/book", h.bookRoom)
		api.GET("/rooms/:id/availability", h.availability)
		api.GET("/rooms/:id/bookings", h.roomBookings)
	}
	return r
}

func readiness(checks map[string]ReadyCheck) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := gin.H{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			loggerFrom(c).Warn("not ready", zap.Any("checks", failed))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

type Server struct {
	srv *http.Server
	log *zap.Logger
}

func NewServer(addr string, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           otelhttp.NewHandler(NewRouter(opts), "roomly-http"),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log.With(zap.String("component", "http")),
	}
}

// Serve blocks until the listener fails or Shutdown is called.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("http server started", zap.String("http_addr", lis.Addr().String()))
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Addr() string {
	return s.srv.Addr
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down http server")
	return s.srv.Shutdown(ctx)
}
