package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
)

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{name: "api error", err: apierr.NotFound("course_not_found", "Course not found"), wantStatus: http.StatusNotFound, wantCode: "course_not_found", wantMsg: "Course not found"},
		{name: "wrapped", err: fmt.Errorf("load: %w", apierr.BadRequest("missing_fields", "Title is required")), wantStatus: http.StatusBadRequest, wantCode: "missing_fields", wantMsg: "Title is required"},
		{name: "plain", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantCode: "internal", wantMsg: "connection reset"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			RespondServiceError(c, tc.err, "internal")

			if rec.Code != tc.wantStatus {
				t.Fatalf("status: want=%d got=%d", tc.wantStatus, rec.Code)
			}
			var env ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tc.wantCode || env.Error.Message != tc.wantMsg {
				t.Fatalf("envelope: got=%+v", env.Error)
			}
		})
	}
}
