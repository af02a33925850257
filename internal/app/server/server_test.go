package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sifan077/ListingBank/internal/app/model"
	"github.com/sifan077/ListingBank/internal/app/repository"
	"github.com/sifan077/ListingBank/internal/app/service"
	"github.com/sifan077/ListingBank/internal/app/timebank"
	httpUtil "github.com/sifan077/ListingBank/internal/http/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeListingService struct {
	statusFn func(ctx context.Context, userID, id, action string) (*service.StatusActionResult, error)
	getFn    func(ctx context.Context, id string) (*model.Listing, error)
}

func (f *fakeListingService) CreateListing(ctx context.Context, input service.CreateListingInput) (*model.Listing, error) {
	return &model.Listing{ID: "new", UserID: input.UserID, Title: input.Title}, nil
}

func (f *fakeListingService) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return nil, repository.ErrListingNotFound
}

func (f *fakeListingService) ListListings(ctx context.Context, userID string, limit, offset int) ([]model.Listing, error) {
	return nil, nil
}

func (f *fakeListingService) PromoteListing(ctx context.Context, userID, id string, duration time.Duration) (*model.Listing, error) {
	return nil, service.ErrForbidden
}

func (f *fakeListingService) ApplyStatusAction(ctx context.Context, userID, id, action string) (*service.StatusActionResult, error) {
	return f.statusFn(ctx, userID, id, action)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

const testSecret = "test-secret"

func newTestServer(t *testing.T, svc service.ListingService) (*Server, string) {
	t.Helper()
	tokens := httpUtil.NewTokenVerifier([]byte(testSecret))
	token, err := tokens.Issue("owner", "", time.Hour)
	require.NoError(t, err)

	srv := New(Dependencies{
		Postgres: fakePinger{},
		Listings: svc,
		Tokens:   tokens,
	})
	return srv, token
}

func do(t *testing.T, srv *Server, method, path, token, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload), "body: %s", raw)
	return resp.StatusCode, payload
}

func TestStatusEndpoint_Success(t *testing.T) {
	var gotUser, gotID, gotAction string
	srv, token := newTestServer(t, &fakeListingService{
		statusFn: func(ctx context.Context, userID, id, action string) (*service.StatusActionResult, error) {
			gotUser, gotID, gotAction = userID, id, action
			return &service.StatusActionResult{Action: timebank.ActionPause, Applied: true}, nil
		},
	})

	code, body := do(t, srv, http.MethodPost, "/api/listings/status", token, `{"listingId":"l-1","action":"pause"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Listing paused successfully", body["message"])
	assert.Equal(t, "owner", gotUser)
	assert.Equal(t, "l-1", gotID)
	assert.Equal(t, "pause", gotAction)
}

func TestStatusEndpoint_NoopMessage(t *testing.T) {
	srv, token := newTestServer(t, &fakeListingService{
		statusFn: func(ctx context.Context, userID, id, action string) (*service.StatusActionResult, error) {
			return &service.StatusActionResult{Action: timebank.ActionResume}, nil
		},
	})

	code, body := do(t, srv, http.MethodPost, "/api/listings/status", token, `{"listingId":"l-1","action":"resume"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Listing is not paused", body["message"])
}

func TestStatusEndpoint_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "you do not own this listing"},
		{"not found", errors.Join(errors.New("load listing"), repository.ErrListingNotFound), http.StatusNotFound, "listing not found"},
		{"invalid action", service.ErrInvalidAction, http.StatusBadRequest, "action must be either pause or resume"},
		{
			"persistence",
			&service.ActionError{Action: timebank.ActionResume, Err: errors.New("deadlock detected")},
			http.StatusBadRequest,
			"Failed to resume listing: deadlock detected",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, token := newTestServer(t, &fakeListingService{
				statusFn: func(ctx context.Context, userID, id, action string) (*service.StatusActionResult, error) {
					return nil, tc.err
				},
			})

			code, body := do(t, srv, http.MethodPost, "/api/listings/status", token, `{"listingId":"l-1","action":"resume"}`)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.message, body["error"])
		})
	}
}

func TestStatusEndpoint_ValidatesBody(t *testing.T) {
	srv, token := newTestServer(t, &fakeListingService{
		statusFn: func(ctx context.Context, userID, id, action string) (*service.StatusActionResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	})

	code, _ := do(t, srv, http.MethodPost, "/api/listings/status", token, `{"action":"pause"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, srv, http.MethodPost, "/api/listings/status", token, `{"listingId":`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStatusEndpoint_RequiresIdentity(t *testing.T) {
	srv, _ := newTestServer(t, &fakeListingService{})

	code, body := do(t, srv, http.MethodPost, "/api/listings/status", "", `{"listingId":"l-1","action":"pause"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.NotEmpty(t, body["error"])

	code, _ = do(t, srv, http.MethodPost, "/api/listings/status", "garbage", `{"listingId":"l-1","action":"pause"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestGetListing(t *testing.T) {
	banked := "3 days"
	srv, token := newTestServer(t, &fakeListingService{
		getFn: func(ctx context.Context, id string) (*model.Listing, error) {
			return &model.Listing{ID: id, UserID: "owner", IsPaused: true, RemainingExpiresAtDuration: &banked}, nil
		},
	})

	code, body := do(t, srv, http.MethodGet, "/api/listings/l-7", token, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "l-7", body["id"])
	assert.Equal(t, true, body["is_paused"])
	assert.Equal(t, "3 days", body["remaining_expires_at_duration"])
	assert.Nil(t, body["expires_at"])
}

func TestPromoteListing_Validation(t *testing.T) {
	srv, token := newTestServer(t, &fakeListingService{})

	code, _ := do(t, srv, http.MethodPost, "/api/listings/l-1/promote", token, `{"days":0}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, srv, http.MethodPost, "/api/listings/l-1/promote", token, `{"days":7}`)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAdminRoutesRequireRole(t *testing.T) {
	tokens := httpUtil.NewTokenVerifier([]byte(testSecret))
	srv := New(Dependencies{
		Listings:      &fakeListingService{},
		Notifications: repository.NewAdminNotificationRepository(nil),
		Tokens:        tokens,
	})
	token, err := tokens.Issue("owner", "", time.Hour)
	require.NoError(t, err)

	code, _ := do(t, srv, http.MethodGet, "/api/admin/notifications", token, "")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestHealth(t *testing.T) {
	srv := New(Dependencies{Postgres: fakePinger{err: errors.New("down")}, Tokens: httpUtil.NewTokenVerifier(nil)})

	code, body := do(t, srv, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body["status"])
}
