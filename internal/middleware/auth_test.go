package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/pkg/httpcontext"
)

type sessionMap map[string]*domain.User

func (m sessionMap) Authenticate(_ context.Context, sessionID string) (*domain.User, error) {
	if user, ok := m[sessionID]; ok {
		return user, nil
	}
	return nil, domain.ErrUnauthorized
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", "teamtasks")
	raw, err := tokens.Issue("u1", "s1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" || claims.SessionID != "s1" || claims.Issuer != "teamtasks" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := NewTokens("other", "teamtasks").Parse(raw); err == nil {
		t.Fatalf("token signed with another secret must be rejected")
	}
	expired, _ := tokens.Issue("u1", "s1", time.Now().Add(-time.Minute))
	if _, err := tokens.Parse(expired); err == nil {
		t.Fatalf("expired token must be rejected")
	}
}

func TestJWTAuth(t *testing.T) {
	tokens := NewTokens("secret", "teamtasks")
	alice := &domain.User{ID: "u1", Username: "@alice"}
	sessions := sessionMap{"s1": alice}

	var seen *domain.User
	handler := JWTAuth(tokens, sessions, time.Second, nil)(func(ctx *fasthttp.RequestCtx) {
		seen = httpcontext.CurrentUser(ctx)
		ctx.SetStatusCode(http.StatusOK)
	})

	valid, _ := tokens.Issue("u1", "s1", time.Now().Add(time.Hour))
	revoked, _ := tokens.Issue("u1", "gone", time.Now().Add(time.Hour))
	mismatched, _ := tokens.Issue("u2", "s1", time.Now().Add(time.Hour))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"revoked session", "Bearer " + revoked, http.StatusUnauthorized},
		{"user mismatch", "Bearer " + mismatched, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			var ctx fasthttp.RequestCtx
			if tc.header != "" {
				ctx.Request.Header.Set("Authorization", tc.header)
			}
			handler(&ctx)
			if ctx.Response.StatusCode() != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, ctx.Response.StatusCode())
			}
			if tc.status == http.StatusOK && seen != alice {
				t.Fatalf("handler should see the session user")
			}
		})
	}
}
