package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voya/services"
)

func (h *Handler) DownloadPDF(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing itinerary ID"})
		return
	}

	it, err := h.Store.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	pdfBytes, err := services.GenerateItineraryPDF(it)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.Log.Info("📄 PDF rendered", zap.String("id", id), zap.Int("bytes", len(pdfBytes)))

	c.Header("Content-Disposition", "attachment; filename=voya-itinerary-"+id+".pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

func (h *Handler) Health(c *gin.Context) {
	dbStatus := "not initialized"
	if h.Store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.Store.Ping(ctx); err != nil {
			dbStatus = "error: " + err.Error()
		} else {
			dbStatus = "ok"
		}
		if h.StoreName != "" {
			dbStatus = h.StoreName + ": " + dbStatus
		}
	}

	providers := []string{}
	if h.Chain != nil {
		providers = h.Chain.ProviderIDs()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"message":     "VOYA API running",
		"aiProviders": providers,
		"database":    dbStatus,
	})
}
