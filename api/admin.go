package api

import (
	"net/http"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/Domenick1991/travelagency/internal/service/listing"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	listings listing.ListingUseCase
}

func NewAdminHandler(listings listing.ListingUseCase) *AdminHandler {
	return &AdminHandler{listings: listings}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.GET("/users", h.users)
}

func (h *AdminHandler) users(c *gin.Context) {
	user, _ := currentUser(c)
	users, err := h.listings.ListUsers(c.Request.Context(), user, domain.Role(c.Query("role")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
