package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voya/database"
	"voya/logger"
	"voya/services"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Chain      *services.Chain
	Recorder   *services.Recorder
	Search     *services.SearchClient
	Store      database.Store
	StoreName  string
	Metrics    *services.Metrics
	Log        *logger.Logger
	CORSOrigin string
}

type Handler struct {
	Deps
}

// NewRouter wires middleware and routes onto a fresh gin engine.
func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.CORSOrigin == "" {
		d.CORSOrigin = "*"
	}
	h := &Handler{Deps: d}

	r := gin.New()
	r.Use(logger.GinLogger(d.Log), logger.GinRecovery(d.Log), CORS(d.CORSOrigin))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

		api.POST("/itinerary/generate", h.GenerateItinerary)
		api.GET("/itineraries", h.ListItineraries)
		api.GET("/itineraries/:id", h.GetItinerary)
		api.GET("/itineraries/:id/pdf", h.DownloadPDF)

		api.POST("/flights/search", h.SearchFlights)
		api.POST("/hotels/search", h.SearchHotels)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return r
}

// CORS stamps the fixed CORS headers on every response and answers any preflight with 204.
func CORS(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// writeError maps the services error taxonomy onto a status and {error} body.
// Provider exhaustion and upstream search failures fall through to 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		validation *services.ValidationError
		malformed  *services.MalformedRequestError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validation), errors.As(err, &malformed):
		status = http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	}

	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error("request failed",
			zap.String("request_id", logger.RequestID(c.Request.Context())),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
