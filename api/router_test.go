package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type routerFixture struct {
	router   *gin.Engine
	verifier *MockVerifier
	users    *MockUsers
	bookings *MockBookingUseCase
	listings *MockListingUseCase
}

func newRouterFixture(checks map[string]func(context.Context) error) *routerFixture {
	gin.SetMode(gin.TestMode)
	f := &routerFixture{
		verifier: &MockVerifier{},
		users:    &MockUsers{},
		bookings: &MockBookingUseCase{},
		listings: &MockListingUseCase{},
	}
	f.router = NewRouter(Services{
		Pricing:      &MockPricingUseCase{},
		Booking:      f.bookings,
		Confirmation: &MockConfirmationUseCase{},
		Listing:      f.listings,
		Verifier:     f.verifier,
		Users:        f.users,
		HealthChecks: checks,
	})
	return f
}

func (f *routerFixture) login(token string, user domain.User) {
	f.verifier.On("Verify", token).Return(user.ID, nil)
	f.users.On("GetByID", mock.Anything, user.ID).Return(&user, nil)
}

func (f *routerFixture) do(method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(map[string]func(context.Context) error{
		"postgres": func(context.Context) error { return nil },
	})
	w := f.do("GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"postgres":"ok"}}`, w.Body.String())

	f = newRouterFixture(map[string]func(context.Context) error{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	w = f.do("GET", "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	f := newRouterFixture(nil)
	w := f.do("GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_Unauthenticated(t *testing.T) {
	f := newRouterFixture(nil)

	w := f.do("GET", "/api/v1/quotes", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	f.verifier.On("Verify", "bad").Return("", fmt.Errorf("%w: token is expired", domain.ErrUnauthenticated))
	w = f.do("GET", "/api/v1/quotes", "bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	f.verifier.On("Verify", "ghost").Return("u404", nil)
	f.users.On("GetByID", mock.Anything, "u404").Return(nil, domain.ErrNotFound)
	w = f.do("GET", "/api/v1/quotes", "ghost")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	f.bookings.AssertNotCalled(t, "ListMyQuotes", mock.Anything, mock.Anything)
}

func TestRouter_RoleGates(t *testing.T) {
	f := newRouterFixture(nil)
	f.login("member-token", member)
	f.login("manager-token", manager)
	f.login("admin-token", admin)
	f.listings.On("ListQuotes", mock.Anything, manager, domain.QuoteFilter{}).Return([]domain.QuoteSummary{}, nil)
	f.listings.On("ListUsers", mock.Anything, admin, domain.Role("")).Return([]domain.User{admin}, nil)

	testCases := []struct {
		name   string
		target string
		token  string
		status int
	}{
		{"member on manager route", "/api/v1/manager/quotes", "member-token", http.StatusForbidden},
		{"manager on manager route", "/api/v1/manager/quotes", "manager-token", http.StatusOK},
		{"manager on admin route", "/api/v1/admin/users", "manager-token", http.StatusForbidden},
		{"admin on admin route", "/api/v1/admin/users", "admin-token", http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do("GET", tc.target, tc.token)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRouter_MemberQuotes(t *testing.T) {
	f := newRouterFixture(nil)
	f.login("member-token", member)
	f.bookings.On("ListMyQuotes", mock.Anything, member).Return([]domain.Quote{{ID: "q1", UserID: "u1"}}, nil)

	w := f.do("GET", "/api/v1/quotes", "member-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"q1"`)
}

func TestStatusFor(t *testing.T) {
	testCases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("x: %w", domain.ErrValidation), http.StatusBadRequest},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("quote q1: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.status, statusFor(tc.err), tc.err.Error())
	}
}
