package confirm

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

func (m *ServiceMock) Confirm(ctx context.Context, userUID, action string) (string, int, error) {
	args := m.Called(ctx, userUID, action)
	return args.String(0), args.Int(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestConfirmHandler_ServeHTTP(t *testing.T) {
	const userUID = "11111111-1111-1111-1111-111111111111"

	tests := []struct {
		name           string
		requestBody    interface{}
		mockPlan       string
		mockBalance    int
		mockErr        error
		callsService   bool
		wantStatusCode int
		wantData       map[string]any
		wantError      string
		wantStatus     string
	}{
		{
			name:           "confirm purchase",
			requestBody:    Request{Action: "confirm"},
			mockPlan:       "Zouk Lover",
			mockBalance:    12,
			callsService:   true,
			wantStatusCode: http.StatusOK,
			wantData: map[string]any{
				"plan_name":         "Zouk Lover",
				"remaining_credits": float64(12),
				"message":           "purchase confirmed",
			},
			wantStatus: "OK",
		},
		{
			name:           "cancel pending plan",
			requestBody:    Request{Action: "cancel"},
			mockPlan:       "Zouk Fan",
			callsService:   true,
			wantStatusCode: http.StatusOK,
			wantData: map[string]any{
				"plan_name": "Zouk Fan",
				"message":   "pending plan cancelled",
			},
			wantStatus: "OK",
		},
		{
			name:           "nothing staged",
			requestBody:    Request{Action: "confirm"},
			mockErr:        services.ErrNoPendingPlan,
			callsService:   true,
			wantStatusCode: http.StatusNotFound,
			wantError:      "no pending plan",
			wantStatus:     "Error",
		},
		{
			name:           "validation error - bad action",
			requestBody:    Request{Action: "maybe"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field Action is not a valid",
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
				serviceMock.On("Confirm", mock.Anything, userUID, mock.Anything).
					Return(tt.mockPlan, tt.mockBalance, tt.mockErr).Once()
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

			req := httptest.NewRequest(http.MethodPost, "/purchases/confirm", bytes.NewReader(bodyBytes))
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
