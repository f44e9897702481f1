package api

import (
	"context"
	"net/http"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/Domenick1991/travelagency/internal/service/booking"
	"github.com/Domenick1991/travelagency/internal/service/confirmation"
	"github.com/Domenick1991/travelagency/internal/service/listing"
	"github.com/Domenick1991/travelagency/internal/service/pricing"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	Pricing      pricing.PricingUseCase
	Booking      booking.BookingUseCase
	Confirmation confirmation.ConfirmationUseCase
	Listing      listing.ListingUseCase
	Verifier     TokenVerifier
	Users        UserLookup
	HealthChecks map[string]func(context.Context) error
}

// NewRouter builds the gin engine with every route of the public API.
// Pricing lookups are open; everything else needs a bearer token.
func NewRouter(s Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())

	r.GET("/health", health(s.HealthChecks))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	NewPricingHandler(s.Pricing).Register(v1.Group("/pricing"))

	authed := v1.Group("", Authenticate(s.Verifier, s.Users))
	NewQuoteHandler(s.Booking, s.Confirmation).Register(authed)

	manager := authed.Group("/manager", RequireRole(domain.RoleManager, domain.RoleAdmin))
	NewManagerHandler(s.Listing, s.Confirmation, s.Booking).Register(manager)

	admin := authed.Group("/admin", RequireRole(domain.RoleAdmin))
	NewAdminHandler(s.Listing).Register(admin)

	return r
}

func health(checks map[string]func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}
