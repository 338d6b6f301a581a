package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voya/services"
)

func (h *Handler) SearchFlights(c *gin.Context) {
	var q services.FlightQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		h.writeError(c, &services.MalformedRequestError{Err: err})
		return
	}

	flights, err := h.Search.SearchFlights(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flights": flights})
}

func (h *Handler) SearchHotels(c *gin.Context) {
	var q services.HotelQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		h.writeError(c, &services.MalformedRequestError{Err: err})
		return
	}

	hotels, err := h.Search.SearchHotels(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hotels": hotels})
}
