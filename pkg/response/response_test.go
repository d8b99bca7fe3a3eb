package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		write          func(c *gin.Context)
		expectedStatus int
		expectedBody   string
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "Seat not found") }, http.StatusBadRequest, `{"detail":"Seat not found"}`},
		{"not found", func(c *gin.Context) { NotFound(c, "Reservation not found") }, http.StatusNotFound, `{"detail":"Reservation not found"}`},
		{"internal", func(c *gin.Context) { InternalError(c, "Reservation failed") }, http.StatusInternalServerError, `{"detail":"Reservation failed"}`},
		{"created", func(c *gin.Context) { Created(c, gin.H{"status": "confirmed"}) }, http.StatusCreated, `{"status":"confirmed"}`},
		{"ok list", func(c *gin.Context) { OK(c, []int{}) }, http.StatusOK, `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.write(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestAbort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Abort(c, http.StatusConflict, "Request in progress")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"detail":"Request in progress"}`, w.Body.String())
}
