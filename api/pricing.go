package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/Domenick1991/travelagency/internal/service/pricing"
	"github.com/gin-gonic/gin"
)

type PricingHandler struct {
	service pricing.PricingUseCase
}

type optionsResponse struct {
	Kind    domain.Kind `json:"kind"`
	Facet   string      `json:"facet"`
	Options []string    `json:"options"`
}

func NewPricingHandler(service pricing.PricingUseCase) *PricingHandler {
	return &PricingHandler{service: service}
}

func (h *PricingHandler) Register(router *gin.RouterGroup) {
	router.GET("/:kind/options", h.options)
	router.GET("/:kind/resolve", h.resolve)
}

func (h *PricingHandler) options(c *gin.Context) {
	kind := domain.Kind(c.Param("kind"))
	date, err := parseDate(c.Query("date"))
	if err != nil {
		badRequest(c, err)
		return
	}
	chosen := c.QueryArray("chosen")

	options, err := h.service.Options(c.Request.Context(), kind, chosen, date)
	if err != nil {
		writeError(c, err)
		return
	}

	spec, _ := domain.Spec(kind)
	c.JSON(http.StatusOK, optionsResponse{
		Kind:    kind,
		Facet:   spec.Facets[len(chosen)],
		Options: options,
	})
}

func (h *PricingHandler) resolve(c *gin.Context) {
	kind := domain.Kind(c.Param("kind"))
	date, err := parseDate(c.Query("date"))
	if err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.service.Resolve(c.Request.Context(), kind, c.QueryArray("facet"), date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// parseDate reads a YYYY-MM-DD value. Empty input yields nil.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}
