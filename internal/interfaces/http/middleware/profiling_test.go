package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestShortHandlerName(t *testing.T) {
	assert.Equal(t, "CartHandler.AddItem",
		shortHandlerName("github.com/linkmarket/backend/internal/interfaces/http/handler.(*CartHandler).AddItem-fm"))
	assert.Equal(t, "func1", shortHandlerName("main.func1"))
}

func TestProfiling_LabelsRequestGoroutine(t *testing.T) {
	r := gin.New()
	r.Use(Profiling(true))

	var route, handler string
	var found bool
	r.GET("/outlets/:id", func(c *gin.Context) {
		route, found = pprof.Label(c.Request.Context(), "route")
		handler, _ = pprof.Label(c.Request.Context(), "handler")
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/outlets/7", nil))

	assert.True(t, found)
	assert.Equal(t, "/outlets/:id", route)
	assert.NotEmpty(t, handler)
}

func TestProfiling_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(Profiling(false))
	var found bool
	r.GET("/x", func(c *gin.Context) {
		_, found = pprof.Label(c.Request.Context(), "route")
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.False(t, found)
}
