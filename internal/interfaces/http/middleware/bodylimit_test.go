package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	importRouter := func(maxBytes int64) *gin.Engine {
		router := gin.New()
		router.Use(BodyLimit(maxBytes))
		router.POST("/api/v1/customers/import", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		return router
	}

	t.Run("accepts an upload within the limit", func(t *testing.T) {
		router := importRouter(1024)

		body := strings.NewReader("事業者ID,姓,名\nB-001,山田,太郎\n")
		req := httptest.NewRequest("POST", "/api/v1/customers/import", body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects an upload whose declared length exceeds the limit", func(t *testing.T) {
		router := importRouter(100)

		body := strings.NewReader(strings.Repeat("x", 200))
		req := httptest.NewRequest("POST", "/api/v1/customers/import", body)
		req.ContentLength = 200
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")
	})

	t.Run("caps streamed bodies without a declared length", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimit(50))
		router.POST("/api/v1/customers/import", func(c *gin.Context) {
			buf := make([]byte, 200)
			if _, err := c.Request.Body.Read(buf); err != nil {
				c.String(http.StatusBadRequest, "body too large")
				return
			}
			c.String(http.StatusOK, "ok")
		})

		body := strings.NewReader(strings.Repeat("x", 100))
		req := httptest.NewRequest("POST", "/api/v1/customers/import", body)
		req.ContentLength = -1
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
