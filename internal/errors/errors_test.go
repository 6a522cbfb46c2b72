package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-storefront/internal/service"
)

func TestToHTTP_BaseMapping(t *testing.T) {
	tcs := []struct {
		name       string
		in         error
		wantStatus int
		wantCode   string
	}{
		{"invalid_argument", service.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
		{"invalid_credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{"invalid_token", service.ErrInvalidToken, http.StatusUnauthorized, "unauthenticated"},
		{"token_expired", service.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
		{"token_revoked", service.ErrTokenRevoked, http.StatusUnauthorized, "token_revoked"},
		{"perm_denied", service.ErrPermissionDenied, http.StatusForbidden, "permission_denied"},
		{"not_found", service.ErrNotFound, http.StatusNotFound, "not_found"},
		{"email_taken", service.ErrEmailTaken, http.StatusConflict, "email_taken"},
		{"insufficient_stock", service.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
		{"empty_cart", service.ErrEmptyCart, http.StatusPreconditionFailed, "empty_cart"},
		{"failed_prec", service.ErrFailedPrecondition, http.StatusPreconditionFailed, "failed_precondition"},
		{"canceled", context.Canceled, StatusClientClosedRequest, "canceled"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			gotStatus, resp := ToHTTP(tc.in)
			require.Equal(t, tc.wantStatus, gotStatus)
			require.Equal(t, tc.wantCode, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestToHTTP_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("service.orders.Checkout: %w", service.ErrEmptyCart)

	gotStatus, resp := ToHTTP(err)
	require.Equal(t, http.StatusPreconditionFailed, gotStatus)
	require.Equal(t, "empty_cart", resp.Error.Code)
}

func TestToHTTP_ValidationError_CarriesFields(t *testing.T) {
	verr := &service.ValidationError{Fields: map[string][]string{
		"email":    {"invalid email format"},
		"password": {"password is required"},
	}}
	err := fmt.Errorf("service.auth.RegisterUser: %w", verr)

	gotStatus, resp := ToHTTP(err)
	require.Equal(t, http.StatusBadRequest, gotStatus)
	require.Equal(t, "invalid_argument", resp.Error.Code)
	require.Contains(t, resp.Error.Fields, "email")
	require.Contains(t, resp.Error.Fields, "password")
}

func TestToHTTP_NilError_Returns500Internal(t *testing.T) {
	gotStatus, resp := ToHTTP(nil)
	require.Equal(t, http.StatusInternalServerError, gotStatus)
	require.Equal(t, "internal", resp.Error.Code)
	require.Equal(t, "internal error", resp.Error.Message)
}

func TestWriteError_AddsRequestID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	r.Header.Set("X-Request-Id", "req-123")
	w := httptest.NewRecorder()

	WriteError(w, r, service.ErrNotFound)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.Contains(t, w.Body.String(), `"request_id":"req-123"`)
}
