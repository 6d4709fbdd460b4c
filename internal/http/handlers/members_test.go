package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eperpus/membership/internal/auth"
	"github.com/eperpus/membership/internal/domain/member"
	"github.com/eperpus/membership/internal/http/handlers"
	"github.com/eperpus/membership/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Keep Gin quiet during tests

func init() {
	gin.SetMode(gin.TestMode)
}

const testMemberID = "5f0c84da-4f44-4d4e-9c9b-0f6a29c7c101"

// fakeVerifier satisfies middlewares.TokenVerifier so routes can be
// mounted behind the real auth middleware.
type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f *fakeVerifier) VerifyAccessToken(string) (*auth.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func authedRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	mw := middlewares.NewAuthMiddleware(&fakeVerifier{
		claims: &auth.Claims{MemberID: testMemberID, Email: "ami@kampus.ac.id"},
	})

	r.Handle(method, path, mw.RequireAuth(), h)

	return r
}

type fakeMemberStore struct {
	getFn            func(ctx context.Context, id string) (member.Member, error)
	updateProfileFn  func(ctx context.Context, id string, req member.UpdateProfileRequest) (member.Member, error)
	updatePasswordFn func(ctx context.Context, id, oldPassword, newPassword string) error
}

func (f *fakeMemberStore) GetByID(ctx context.Context, id string) (member.Member, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return member.Member{}, nil
}

func (f *fakeMemberStore) UpdateProfile(ctx context.Context, id string, req member.UpdateProfileRequest) (member.Member, error) {
	if f.updateProfileFn != nil {
		return f.updateProfileFn(ctx, id, req)
	}
	return member.Member{}, nil
}

func (f *fakeMemberStore) UpdatePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	if f.updatePasswordFn != nil {
		return f.updatePasswordFn(ctx, id, oldPassword, newPassword)
	}
	return nil
}

func sampleMember() member.Member {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	return member.Member{
		ID:        testMemberID,
		UID:       "0417",
		Name:      "Ami Lestari",
		Email:     "ami@kampus.ac.id",
		Phone:     "0812345678",
		Address:   "Jl. Merdeka 1",
		Type:      member.TypeStudent,
		Status:    member.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestGetProfile(t *testing.T) {
	tests := []struct {
		name           string
		storeSetUp     func(*fakeMemberStore)
		wantStatusCode int
	}{
		{
			name: "success",
			storeSetUp: func(f *fakeMemberStore) {
				f.getFn = func(ctx context.Context, id string) (member.Member, error) {
					if id != testMemberID {
						t.Fatalf("handler looked up %q, want token subject", id)
					}
					return sampleMember(), nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			storeSetUp: func(f *fakeMemberStore) {
				f.getFn = func(ctx context.Context, id string) (member.Member, error) {
					return member.Member{}, member.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "store_error",
			storeSetUp: func(f *fakeMemberStore) {
				f.getFn = func(ctx context.Context, id string) (member.Member, error) {
					return member.Member{}, errors.New("db down")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeMemberStore{}
			tt.storeSetUp(store)

			h := handlers.NewMembersHandler(store)
			r := authedRouter(http.MethodGet, "/members/me", h.GetProfile)

			req := httptest.NewRequest(http.MethodGet, "/members/me", nil)
			req.Header.Set("Authorization", "Bearer token")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				// the hash must never appear in a serialized profile
				if bytes.Contains(w.Body.Bytes(), []byte("password")) {
					t.Fatalf("profile body leaked a password field: %s", w.Body.String())
				}
			}
		})
	}
}

func TestGetProfileRejectsMissingToken(t *testing.T) {
	h := handlers.NewMembersHandler(&fakeMemberStore{})
	r := authedRouter(http.MethodGet, "/members/me", h.GetProfile)

	req := httptest.NewRequest(http.MethodGet, "/members/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", w.Code)
	}
}

func TestUpdateProfile(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		storeSetUp     func(*fakeMemberStore)
		wantStatusCode int
	}{
		{
			name: "partial_update_passes_only_supplied_fields",
			body: `{"phone": "0898765432"}`,
			storeSetUp: func(f *fakeMemberStore) {
				f.updateProfileFn = func(ctx context.Context, id string, req member.UpdateProfileRequest) (member.Member, error) {
					if req.Phone == nil || *req.Phone != "0898765432" {
						t.Fatalf("phone not forwarded: %+v", req)
					}
					if req.Address != nil || req.Type != nil {
						t.Fatalf("untouched fields should stay nil: %+v", req)
					}
					m := sampleMember()
					m.Phone = *req.Phone
					return m, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid_type_rejected",
			body:           `{"type": "wizard"}`,
			storeSetUp:     func(f *fakeMemberStore) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "member_gone",
			body: `{"address": "Jl. Baru 2"}`,
			storeSetUp: func(f *fakeMemberStore) {
				f.updateProfileFn = func(ctx context.Context, id string, req member.UpdateProfileRequest) (member.Member, error) {
					return member.Member{}, member.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeMemberStore{}
			tt.storeSetUp(store)

			h := handlers.NewMembersHandler(store)
			r := authedRouter(http.MethodPut, "/members/me", h.UpdateProfile)

			req := httptest.NewRequest(http.MethodPut, "/members/me", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer token")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestChangePassword(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		storeSetUp     func(*fakeMemberStore)
		wantStatusCode int
		wantCode       string
	}{
		{
			name: "success",
			body: `{"oldPassword": "old-secret-1", "newPassword": "new-secret-1"}`,
			storeSetUp: func(f *fakeMemberStore) {
				f.updatePasswordFn = func(ctx context.Context, id, oldPassword, newPassword string) error {
					return nil
				}
			},
			wantStatusCode: http.StatusNoContent,
		},
		{
			name: "wrong_old_password",
			body: `{"oldPassword": "guess", "newPassword": "new-secret-1"}`,
			storeSetUp: func(f *fakeMemberStore) {
				f.updatePasswordFn = func(ctx context.Context, id, oldPassword, newPassword string) error {
					return member.ErrWrongPassword
				}
			},
			wantStatusCode: http.StatusUnauthorized,
			wantCode:       "wrong_password",
		},
		{
			name:           "short_new_password_rejected",
			body:           `{"oldPassword": "old-secret-1", "newPassword": "tiny"}`,
			storeSetUp:     func(f *fakeMemberStore) {},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeMemberStore{}
			tt.storeSetUp(store)

			h := handlers.NewMembersHandler(store)
			r := authedRouter(http.MethodPut, "/members/me/password", h.ChangePassword)

			req := httptest.NewRequest(http.MethodPut, "/members/me/password", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer token")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantCode != "" {
				var resp struct {
					Error struct {
						Code string `json:"code"`
					} `json:"error"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("bad error body: %v", err)
				}
				if resp.Error.Code != tt.wantCode {
					t.Fatalf("error code = %q, want %q", resp.Error.Code, tt.wantCode)
				}
			}
		})
	}
}
