package api

import (
	"fmt"
	"net/http"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/Domenick1991/travelagency/internal/service/booking"
	"github.com/Domenick1991/travelagency/internal/service/confirmation"
	"github.com/gin-gonic/gin"
)

// QuoteHandler serves the customer side: quotes, reservations, direct
// bookings and the confirmation document.
type QuoteHandler struct {
	bookings      booking.BookingUseCase
	confirmations confirmation.ConfirmationUseCase
}

type lineRequest struct {
	Kind      string   `json:"kind" binding:"required"`
	Facets    []string `json:"facets" binding:"required"`
	UsageDate string   `json:"usage_date"`
	Quantity  int      `json:"quantity"`
	Note      string   `json:"note"`
}

type submitQuoteRequest struct {
	Title string        `json:"title"`
	Lines []lineRequest `json:"lines" binding:"required,min=1,dive"`
}

type reservationRequest struct {
	Type  string        `json:"type" binding:"required"`
	Lines []lineRequest `json:"lines" binding:"required,min=1,dive"`
}

type directBookingRequest struct {
	Title string        `json:"title"`
	Type  string        `json:"type" binding:"required"`
	Lines []lineRequest `json:"lines" binding:"required,min=1,dive"`
}

func NewQuoteHandler(bookings booking.BookingUseCase, confirmations confirmation.ConfirmationUseCase) *QuoteHandler {
	return &QuoteHandler{bookings: bookings, confirmations: confirmations}
}

func (h *QuoteHandler) Register(router *gin.RouterGroup) {
	router.POST("/quotes", h.submit)
	router.GET("/quotes", h.listMine)
	router.GET("/quotes/:id", h.get)
	router.POST("/quotes/:id/reservations", h.reserve)
	router.GET("/quotes/:id/confirmation.pdf", h.document)
	router.POST("/bookings", h.direct)
}

func (h *QuoteHandler) submit(c *gin.Context) {
	user, _ := currentUser(c)
	var req submitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	lines, err := toLines(req.Lines)
	if err != nil {
		badRequest(c, err)
		return
	}

	bundle, err := h.bookings.SubmitQuote(c.Request.Context(), user, booking.SubmitQuoteInput{Title: req.Title, Lines: lines})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bundle)
}

func (h *QuoteHandler) listMine(c *gin.Context) {
	user, _ := currentUser(c)
	quotes, err := h.bookings.ListMyQuotes(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	if quotes == nil {
		quotes = []domain.Quote{}
	}
	c.JSON(http.StatusOK, quotes)
}

func (h *QuoteHandler) get(c *gin.Context) {
	user, _ := currentUser(c)
	bundle, err := h.bookings.GetQuote(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

func (h *QuoteHandler) reserve(c *gin.Context) {
	user, _ := currentUser(c)
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	lines, err := toLines(req.Lines)
	if err != nil {
		badRequest(c, err)
		return
	}

	bundle, err := h.bookings.CreateReservation(c.Request.Context(), user, c.Param("id"), booking.ReservationInput{
		Type:  domain.ReservationType(req.Type),
		Lines: lines,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bundle)
}

func (h *QuoteHandler) direct(c *gin.Context) {
	user, _ := currentUser(c)
	var req directBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	lines, err := toLines(req.Lines)
	if err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.bookings.DirectBooking(c.Request.Context(), user, booking.DirectBookingInput{
		Title: req.Title,
		Type:  domain.ReservationType(req.Type),
		Lines: lines,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *QuoteHandler) document(c *gin.Context) {
	user, _ := currentUser(c)
	id := c.Param("id")
	pdf, err := h.confirmations.Document(c.Request.Context(), user, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="confirmation-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func toLines(reqs []lineRequest) ([]booking.LineInput, error) {
	lines := make([]booking.LineInput, 0, len(reqs))
	for i, r := range reqs {
		date, err := parseDate(r.UsageDate)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, booking.LineInput{
			Kind:      domain.Kind(r.Kind),
			Facets:    r.Facets,
			UsageDate: date,
			Quantity:  r.Quantity,
			Note:      r.Note,
		})
	}
	return lines, nil
}
