// Package web serves the dashboard pages, their fragments and the browser
// side of the chat relay.
package web

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"scholarhub/internal/chat"
	"scholarhub/internal/httpmiddleware"
	"scholarhub/internal/metrics"
	"scholarhub/internal/store"
	"scholarhub/internal/views"
)

// HealthChecker probes the records backend.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ChatConfig describes how browser sockets reach the chatbot.
type ChatConfig struct {
	URL            string
	Dialer         chat.Dialer
	ReconnectDelay time.Duration
	BannerTTL      time.Duration
	Metrics        *metrics.Chat
}

// Deps are the collaborators of a Server. Redis and Limiter may be nil.
type Deps struct {
	Catalog    *views.Catalog
	Backend    HealthChecker
	Redis      *store.Redis
	Limiter    httpmiddleware.Limiter
	Chat       ChatConfig
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
	Production bool
	Origins    []string
}

// Server holds the handlers.
type Server struct {
	catalog    *views.Catalog
	backend    HealthChecker
	redis      *store.Redis
	limiter    httpmiddleware.Limiter
	chat       ChatConfig
	gatherer   prometheus.Gatherer
	log        *zap.Logger
	production bool
	origins    []string
	upgrader   websocket.Upgrader
}

// New creates a Server from d.
func New(d Deps) *Server {
	s := &Server{
		catalog:    d.Catalog,
		backend:    d.Backend,
		redis:      d.Redis,
		limiter:    d.Limiter,
		chat:       d.Chat,
		gatherer:   d.Gatherer,
		log:        d.Logger,
		production: d.Production,
		origins:    d.Origins,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if s.chat.Dialer == nil {
		s.chat.Dialer = chat.NewWSDialer(10 * time.Second)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Router builds the gin engine with all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.Logger(s.log, "/healthz", "/metrics"))
	r.Use(httpmiddleware.Recovery(s.log))
	r.Use(httpmiddleware.CORS(s.origins))
	r.Use(httpmiddleware.SecurityHeaders(s.production))
	if s.limiter != nil {
		r.Use(httpmiddleware.RateLimit(s.limiter, s.log))
	}

	r.SetHTMLTemplate(views.Templates())

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	r.GET("/healthz", s.healthz)

	r.GET("/", s.dashboardPage)
	for _, v := range views.All() {
		r.GET(v.Path, s.listPage(v))
	}
	r.GET("/students/:id", s.studentPage)
	r.POST("/students", s.createStudent)
	r.GET("/chat", s.chatPage)

	fragments := r.Group("/fragments")
	{
		fragments.GET("/dashboard", s.dashboardFragment)
		fragments.GET("/students/:id", s.studentFragment)
		fragments.GET("/:view", s.listFragment)
	}

	r.GET("/export/:file", s.export)
	r.GET("/ws/chat", s.chatSocket)

	r.NoRoute(s.notFound)
	return r
}

// checkOrigin accepts same-host browsers and the configured CORS origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
