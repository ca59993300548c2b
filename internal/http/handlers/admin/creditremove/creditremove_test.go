package creditremove

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/debozouker/zouk-studio/internal/storage"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) RemoveCredit(ctx context.Context, userUID string) (int, bool, error) {
	args := m.Called(ctx, userUID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCreditRemoveHandler_ServeHTTP(t *testing.T) {
	const userUID = "11111111-1111-1111-1111-111111111111"

	tests := []struct {
		name           string
		mockBalance    int
		mockChanged    bool
		mockErr        error
		wantStatusCode int
		wantData       map[string]any
		wantError      string
	}{
		{
			name:           "credit removed",
			mockBalance:    4,
			mockChanged:    true,
			wantStatusCode: http.StatusOK,
			wantData: map[string]any{
				"remaining_credits": float64(4),
				"changed":           true,
			},
		},
		{
			name:           "zero balance stays zero",
			mockBalance:    0,
			mockChanged:    false,
			wantStatusCode: http.StatusOK,
			wantData: map[string]any{
				"remaining_credits": float64(0),
				"changed":           false,
			},
		},
		{
			name:           "user not found",
			mockErr:        storage.ErrUserNotFound,
			wantStatusCode: http.StatusNotFound,
			wantError:      "user not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			serviceMock.On("RemoveCredit", mock.Anything, userUID).
				Return(tt.mockBalance, tt.mockChanged, tt.mockErr).Once()

			router := chi.NewRouter()
			router.Post("/admin/users/{uid}/credits/remove", New(newNoopLogger(), serviceMock).ServeHTTP)

			req := httptest.NewRequest(http.MethodPost, "/admin/users/"+userUID+"/credits/remove", nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err := json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
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
