package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/relatia/crm-api/internal/models"
)

func rbacRouter(claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/exports", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, RequireRoles(models.ExportRoles...), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	return r
}

func TestRBACAllowsPermittedRoles(t *testing.T) {
	for _, role := range models.ExportRoles {
		r := rbacRouter(&models.JWTClaims{UserID: "u-1", Role: role})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/exports", nil))
		require.Equal(t, http.StatusAccepted, w.Code, "role %s", role)
	}
}

func TestRBACRejectsOtherRoles(t *testing.T) {
	for _, role := range []models.UserRole{models.RoleAgent, models.RoleViewer} {
		r := rbacRouter(&models.JWTClaims{UserID: "u-1", Role: role})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/exports", nil))
		require.Equal(t, http.StatusForbidden, w.Code, "role %s", role)
	}
}

func TestRBACRequiresAuthentication(t *testing.T) {
	r := rbacRouter(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/exports", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
