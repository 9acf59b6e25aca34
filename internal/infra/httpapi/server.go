package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr           string
	AllowedOrigins []string // empty allows any origin
	Environment    string
}

type Server struct {
	Config Config
	Router *gin.Engine
	logger *logrus.Entry
}

// NewServer builds the router with middlewares and every dashboard route mounted.
func NewServer(conf Config, h *Handler, logger *logrus.Entry) *Server {
	if conf.Environment == "production" || conf.Environment == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		logger: logger.WithField("component", "http"),
	}

	s.MountMiddlewares()
	s.MountHandlers(h)

	return s
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(requestid.New())
	s.Router.Use(Logger(s.logger))
	s.Router.Use(gin.Recovery())
	s.Router.Use(CORS(s.Config.AllowedOrigins))
}

func (s *Server) MountHandlers(h *Handler) {
	const basePath = "/api"

	api := s.Router.Group(basePath)
	{
		api.GET("/schedule/week/:weekId", h.HandleGetWeekSchedule)
		api.GET("/schedule/:weekId", h.HandleGetUserSchedule)
		api.POST("/schedule/submit", h.HandleSubmit)

		api.GET("/history", h.HandleGetHistory)
		api.GET("/points", h.HandleGetPoints)

		api.POST("/records", h.HandleCreateRecord)
		api.GET("/records", h.HandleGetRecordRange)
		api.GET("/records/:date", h.HandleGetRecords)
		api.DELETE("/records/:date/:recordId", h.HandleDeleteRecord)

		api.GET("/medications", h.HandleGetMedications)
		api.PUT("/medications", h.HandleSaveMedications)

		api.GET("/hitokoto", h.HandleListHitokoto)
		api.POST("/hitokoto", h.HandleAddHitokoto)
		api.DELETE("/hitokoto/:id", h.HandleDeleteHitokoto)
	}

	s.Router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// HTTPServer wraps the router in an http.Server with conservative timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.Config.Addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// CORS allows the static dashboard to call the API.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = allowedOrigins
	}
	return cors.New(conf)
}

// Logger logs one line per request with its status, latency and request id.
func Logger(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"status":     status,
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency":    time.Since(start).String(),
			"request_id": requestid.Get(c),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.ByType(gin.ErrorTypePrivate).String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("Client error")
		default:
			entry.Info("Request completed")
		}
	}
}
