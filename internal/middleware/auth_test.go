package middleware

import (
	"athos_explorer_backend/internal/config"
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(cfg *config.Config, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(cfg)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		c.String(http.StatusOK, "%d:%s", user.UserID, UserKey(c))
	})
	r.GET("/", handlers...)
	return r
}

func token(t *testing.T, secret string, role model.UserRole) string {
	t.Helper()
	u := &model.User{Email: "monk@athos.test", Role: role}
	u.ID = 12
	tok, err := util.GenerateJWT(u, secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}
	r := newAuthRouter(cfg)

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing token", "", "", http.StatusUnauthorized},
		{"bearer header", "Bearer " + token(t, "test-secret", model.Learner), "", http.StatusOK},
		{"query token", "", token(t, "test-secret", model.Learner), http.StatusOK},
		{"wrong secret", "Bearer " + token(t, "other", model.Learner), "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "/"
			if tt.query != "" {
				url += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "12:user:12", w.Body.String())
			}
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}
	r := newAuthRouter(cfg, RoleMiddleware(model.Editor))

	for role, want := range map[model.UserRole]int{
		model.Learner: http.StatusForbidden,
		model.Editor:  http.StatusOK,
		model.Admin:   http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, "test-secret", role))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "role %s", role)
	}
}
