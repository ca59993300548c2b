package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/debozouker/zouk-studio/internal/http/middlewarectx"
	services "github.com/debozouker/zouk-studio/internal/services/purchase"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Stage(ctx context.Context, userUID, planName string) error {
	args := m.Called(ctx, userUID, planName)
	return args.Error(0)
}

func (m *ServiceMock) Plans() map[string]int {
	args := m.Called()
	return args.Get(0).(map[string]int)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestStageHandler_ServeHTTP(t *testing.T) {
	const userUID = "11111111-1111-1111-1111-111111111111"
	plans := map[string]int{"Zouk Admirer": 6}

	tests := []struct {
		name           string
		requestBody    interface{}
		mockErr        error
		callsService   bool
		wantStatusCode int
		wantData       map[string]any
		wantError      string
		wantStatus     string
	}{
		{
			name:           "plan staged",
			requestBody:    Request{PlanName: "Zouk Admirer"},
			callsService:   true,
			wantStatusCode: http.StatusOK,
			wantData: map[string]any{
				"plan_name": "Zouk Admirer",
				"credits":   float64(6),
				"message":   "plan staged, confirm to complete the purchase",
			},
			wantStatus: "OK",
		},
		{
			name:           "unknown plan",
			requestBody:    Request{PlanName: "Lifetime Pass"},
			mockErr:        services.ErrUnknownPlan,
			callsService:   true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "unknown plan",
			wantStatus:     "Error",
		},
		{
			name:           "validation error - missing plan",
			requestBody:    Request{},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field PlanName is a required field",
			wantStatus:     "Error",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			handler := New(newNoopLogger(), serviceMock)

			if tt.callsService {
				serviceMock.On("Stage", mock.Anything, userUID, mock.Anything).
					Return(tt.mockErr).Once()
			}
			if tt.wantStatusCode == http.StatusOK {
				serviceMock.On("Plans").Return(plans)
			}

			var bodyBytes []byte
			var err error
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/purchases/stage", bytes.NewReader(bodyBytes))
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			ctx = context.WithValue(ctx, middlewarectx.UserUID, userUID)
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err = json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				errStr, ok := got["error"].(string)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errStr)
			}

			if tt.wantData != nil {
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				for k, v := range tt.wantData {
					assert.Equal(t, v, data[k])
				}
			}

			serviceMock.AssertExpectations(t)
		})
	}
}
