package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"voya/database"
	"voya/services"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type GenerateResponse struct {
	Success    bool   `json:"success"`
	ID         string `json:"id"`
	Itinerary  string `json:"itinerary"`
	AIProvider string `json:"aiProvider"`
}

// GenerateItinerary validates the body, runs the provider chain and records the
// result without waiting for the insert.
func (h *Handler) GenerateItinerary(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.writeError(c, &services.MalformedRequestError{Err: err})
		return
	}

	req, err := services.DecodeItineraryRequest(body)
	if err != nil {
		h.writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	res, err := h.Chain.Generate(ctx, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if h.Recorder != nil {
		h.Recorder.Record(ctx, req, res)
	}

	c.JSON(http.StatusOK, GenerateResponse{
		Success:    true,
		ID:         res.ID,
		Itinerary:  res.Itinerary,
		AIProvider: res.Provider,
	})
}

func (h *Handler) ListItineraries(c *gin.Context) {
	limit := cast.ToInt(c.Query("limit"))
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	items, err := h.Store.List(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if items == nil {
		items = []database.Itinerary{}
	}
	c.JSON(http.StatusOK, gin.H{"itineraries": items})
}

func (h *Handler) GetItinerary(c *gin.Context) {
	it, err := h.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}
