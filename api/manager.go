package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/Domenick1991/travelagency/internal/service/booking"
	"github.com/Domenick1991/travelagency/internal/service/confirmation"
	"github.com/Domenick1991/travelagency/internal/service/listing"
	"github.com/gin-gonic/gin"
)

// ManagerHandler serves the back-office routes for managers and admins.
type ManagerHandler struct {
	listings      listing.ListingUseCase
	confirmations confirmation.ConfirmationUseCase
	bookings      booking.BookingUseCase
}

type noteRequest struct {
	Note string `json:"note"`
}

type confirmRequest struct {
	Method string `json:"method"`
	Note   string `json:"note"`
}

func NewManagerHandler(listings listing.ListingUseCase, confirmations confirmation.ConfirmationUseCase, bookings booking.BookingUseCase) *ManagerHandler {
	return &ManagerHandler{listings: listings, confirmations: confirmations, bookings: bookings}
}

func (h *ManagerHandler) Register(router *gin.RouterGroup) {
	router.GET("/quotes", h.listQuotes)
	router.GET("/reservations", h.listReservations)
	router.GET("/users/:id/reservations", h.userReservations)
	router.POST("/quotes/:id/approve", h.approve)
	router.POST("/quotes/:id/reject", h.reject)
	router.POST("/quotes/:id/confirm", h.confirm)
	router.POST("/quotes/:id/paid", h.paid)
	router.PUT("/quotes/:id/note", h.note)
	router.POST("/reservations/:id/cancel", h.cancelReservation)
}

func (h *ManagerHandler) listQuotes(c *gin.Context) {
	user, _ := currentUser(c)
	limit, offset, err := page(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	out, err := h.listings.ListQuotes(c.Request.Context(), user, domain.QuoteFilter{
		Status: domain.QuoteStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ManagerHandler) listReservations(c *gin.Context) {
	user, _ := currentUser(c)
	limit, offset, err := page(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	out, err := h.listings.ListReservations(c.Request.Context(), user, domain.ReservationFilter{
		Status: domain.ReservationStatus(c.Query("status")),
		Type:   domain.ReservationType(c.Query("type")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ManagerHandler) userReservations(c *gin.Context) {
	user, _ := currentUser(c)
	out, err := h.listings.ListReservationDetails(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ManagerHandler) approve(c *gin.Context) {
	user, _ := currentUser(c)
	q, err := h.confirmations.ApproveQuote(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *ManagerHandler) reject(c *gin.Context) {
	user, _ := currentUser(c)
	var req noteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	q, err := h.confirmations.RejectQuote(c.Request.Context(), user, c.Param("id"), req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *ManagerHandler) confirm(c *gin.Context) {
	user, _ := currentUser(c)
	var req confirmRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	entry, err := h.confirmations.ConfirmQuote(c.Request.Context(), user, c.Param("id"), confirmation.ConfirmInput{
		Method: req.Method,
		Note:   req.Note,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *ManagerHandler) paid(c *gin.Context) {
	user, _ := currentUser(c)
	q, err := h.confirmations.MarkPaid(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *ManagerHandler) note(c *gin.Context) {
	user, _ := currentUser(c)
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q, err := h.confirmations.UpdateManagerNote(c.Request.Context(), user, c.Param("id"), req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *ManagerHandler) cancelReservation(c *gin.Context) {
	user, _ := currentUser(c)
	r, err := h.bookings.CancelReservation(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func page(c *gin.Context) (int, int, error) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		return 0, 0, err
	}
	offset, err := intQuery(c, "offset")
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}
