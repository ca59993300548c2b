package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/debozouker/zouk-studio/internal/lib/timetable"
	"github.com/debozouker/zouk-studio/internal/models"
	"github.com/debozouker/zouk-studio/internal/storage"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) CreateBookingWithDebit(ctx context.Context, userUID, date, tm string) (int, int, error) {
	args := m.Called(ctx, userUID, date, tm)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *RepoMock) RemoveBookingWithRefund(ctx context.Context, userUID, date, tm string) (int, error) {
	args := m.Called(ctx, userUID, date, tm)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) FindBooking(ctx context.Context, userUID, date, tm string) (*models.Booking, error) {
	args := m.Called(ctx, userUID, date, tm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *RepoMock) ListBookings(ctx context.Context, userUID string) ([]*models.Booking, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *RepoMock) GetRemainingCredits(ctx context.Context, userUID string) (int, error) {
	args := m.Called(ctx, userUID)
	return args.Int(0), args.Error(1)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func testCalendar(t *testing.T) *timetable.Calendar {
	t.Helper()
	cal, err := timetable.New("Australia/Sydney", "2025-09-06", "Wednesday", 24,
		[]string{"19:00", "20:00", "21:00"}, time.Hour)
	require.NoError(t, err)
	return cal
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBookingService_Book(t *testing.T) {
	cal := testCalendar(t)
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, cal.Location())
	userUID := "11111111-1111-1111-1111-111111111111"

	tests := []struct {
		name        string
		date        string
		tm          string
		setup       func(repo *RepoMock, cache *CacheMock)
		wantBalance int
		wantErr     error
	}{
		{
			name: "success",
			date: "2025-09-10",
			tm:   "19:00",
			setup: func(repo *RepoMock, cache *CacheMock) {
				repo.On("CreateBookingWithDebit", mock.Anything, userUID, "2025-09-10", "19:00").
					Return(7, 4, nil)
				cache.On("Invalidate", "bookings:"+userUID).Return(nil)
			},
			wantBalance: 4,
		},
		{
			name:    "malformed date",
			date:    "10-09-2025",
			tm:      "19:00",
			setup:   func(repo *RepoMock, cache *CacheMock) {},
			wantErr: ErrInvalidSlot,
		},
		{
			name:    "malformed time",
			date:    "2025-09-10",
			tm:      "7pm",
			setup:   func(repo *RepoMock, cache *CacheMock) {},
			wantErr: ErrInvalidSlot,
		},
		{
			name:    "past slot",
			date:    "2025-09-03",
			tm:      "19:00",
			setup:   func(repo *RepoMock, cache *CacheMock) {},
			wantErr: ErrPastSlot,
		},
		{
			name: "duplicate booking",
			date: "2025-09-10",
			tm:   "20:00",
			setup: func(repo *RepoMock, cache *CacheMock) {
				repo.On("CreateBookingWithDebit", mock.Anything, userUID, "2025-09-10", "20:00").
					Return(0, 0, storage.ErrDuplicateBooking)
			},
			wantErr: storage.ErrDuplicateBooking,
		},
		{
			name: "insufficient credit",
			date: "2025-09-10",
			tm:   "21:00",
			setup: func(repo *RepoMock, cache *CacheMock) {
				repo.On("CreateBookingWithDebit", mock.Anything, userUID, "2025-09-10", "21:00").
					Return(0, 0, storage.ErrInsufficientCredit)
			},
			wantErr: storage.ErrInsufficientCredit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setup(repo, cache)

			svc := NewBookingService(repo, cache, cal, discardLogger())
			balance, err := svc.Book(context.Background(), userUID, tt.date, tt.tm, now)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantBalance, balance)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestBookingService_Book_SlotStartingNowRejected(t *testing.T) {
	cal := testCalendar(t)
	// "строго в будущем": слот, начинающийся прямо сейчас, бронировать нельзя
	now := time.Date(2025, 9, 10, 19, 0, 0, 0, cal.Location())

	svc := NewBookingService(new(RepoMock), new(CacheMock), cal, discardLogger())
	_, err := svc.Book(context.Background(), "uid", "2025-09-10", "19:00", now)
	assert.ErrorIs(t, err, ErrPastSlot)
}

func TestBookingService_Cancel(t *testing.T) {
	cal := testCalendar(t)
	userUID := "11111111-1111-1111-1111-111111111111"
	booking := &models.Booking{ID: 7, UserUID: userUID, Date: "2025-09-10", Time: "19:00"}

	tests := []struct {
		name        string
		now         time.Time
		setup       func(repo *RepoMock, cache *CacheMock)
		wantBalance int
		wantErr     error
	}{
		{
			name: "success well before cutoff",
			now:  time.Date(2025, 9, 10, 12, 0, 0, 0, cal.Location()),
			setup: func(repo *RepoMock, cache *CacheMock) {
				repo.On("FindBooking", mock.Anything, userUID, "2025-09-10", "19:00").
					Return(booking, nil)
				repo.On("RemoveBookingWithRefund", mock.Anything, userUID, "2025-09-10", "19:00").
					Return(5, nil)
				cache.On("Invalidate", "bookings:"+userUID).Return(nil)
			},
			wantBalance: 5,
		},
		{
			name: "booking not found",
			now:  time.Date(2025, 9, 10, 12, 0, 0, 0, cal.Location()),
			setup: func(repo *RepoMock, cache *CacheMock) {
				repo.On("FindBooking", mock.Anything, userUID, "2025-09-10", "19:00").
					Return(nil, storage.ErrBookingNotFound)
			},
			wantErr: storage.ErrBookingNotFound,
		},
		{
			name: "inside cutoff window",
			now:  time.Date(2025, 9, 10, 18, 30, 0, 0, cal.Location()),
			setup: func(repo *RepoMock, cache *CacheMock) {
				repo.On("FindBooking", mock.Anything, userUID, "2025-09-10", "19:00").
					Return(booking, nil)
			},
			wantErr: ErrTooLateToCancel,
		},
		{
			name: "exactly at cutoff",
			now:  time.Date(2025, 9, 10, 18, 0, 0, 0, cal.Location()),
			setup: func(repo *RepoMock, cache *CacheMock) {
				repo.On("FindBooking", mock.Anything, userUID, "2025-09-10", "19:00").
					Return(booking, nil)
			},
			wantErr: ErrTooLateToCancel,
		},
		{
			name: "after class started",
			now:  time.Date(2025, 9, 10, 19, 30, 0, 0, cal.Location()),
			setup: func(repo *RepoMock, cache *CacheMock) {
				repo.On("FindBooking", mock.Anything, userUID, "2025-09-10", "19:00").
					Return(booking, nil)
			},
			wantErr: ErrTooLateToCancel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setup(repo, cache)

			svc := NewBookingService(repo, cache, cal, discardLogger())
			balance, err := svc.Cancel(context.Background(), userUID, "2025-09-10", "19:00", tt.now)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantBalance, balance)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestBookingService_List_CacheHit(t *testing.T) {
	cal := testCalendar(t)
	userUID := "uid-cache"
	cached := []*models.Booking{{ID: 1, UserUID: userUID, Date: "2025-09-10", Time: "19:00"}}

	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Get", "bookings:"+userUID, mock.Anything).
		Run(func(args mock.Arguments) {
			ptr := args.Get(1).(*[]*models.Booking)
			*ptr = cached
		}).
		Return(true, nil)

	svc := NewBookingService(repo, cache, cal, discardLogger())
	result, err := svc.List(context.Background(), userUID)

	require.NoError(t, err)
	assert.Equal(t, cached, result)
	repo.AssertNotCalled(t, "ListBookings", mock.Anything, mock.Anything)
}

func TestBookingService_List_CacheMiss(t *testing.T) {
	cal := testCalendar(t)
	userUID := "uid-miss"
	stored := []*models.Booking{
		{ID: 1, UserUID: userUID, Date: "2025-09-10", Time: "19:00"},
		{ID: 2, UserUID: userUID, Date: "2025-09-17", Time: "20:00"},
	}

	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Get", "bookings:"+userUID, mock.Anything).Return(false, nil)
	repo.On("ListBookings", mock.Anything, userUID).Return(stored, nil)
	cache.On("Set", "bookings:"+userUID, stored, time.Hour).Return(nil)

	svc := NewBookingService(repo, cache, cal, discardLogger())
	result, err := svc.List(context.Background(), userUID)

	require.NoError(t, err)
	assert.Equal(t, stored, result)
	cache.AssertExpectations(t)
}

func TestBookingService_List_CacheErrorFallsBack(t *testing.T) {
	cal := testCalendar(t)
	userUID := "uid-err"
	stored := []*models.Booking{{ID: 1, UserUID: userUID, Date: "2025-09-10", Time: "19:00"}}

	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Get", "bookings:"+userUID, mock.Anything).Return(false, errors.New("redis down"))
	repo.On("ListBookings", mock.Anything, userUID).Return(stored, nil)
	cache.On("Set", "bookings:"+userUID, stored, time.Hour).Return(errors.New("redis down"))

	svc := NewBookingService(repo, cache, cal, discardLogger())
	result, err := svc.List(context.Background(), userUID)

	require.NoError(t, err)
	assert.Equal(t, stored, result)
}

func TestBookingService_Timetable(t *testing.T) {
	cal := testCalendar(t)
	userUID := "uid-view"
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, cal.Location())
	stored := []*models.Booking{{ID: 1, UserUID: userUID, Date: "2025-09-10", Time: "19:00"}}

	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Get", "bookings:"+userUID, mock.Anything).Return(false, nil)
	repo.On("ListBookings", mock.Anything, userUID).Return(stored, nil)
	cache.On("Set", "bookings:"+userUID, stored, time.Hour).Return(nil)
	repo.On("GetRemainingCredits", mock.Anything, userUID).Return(11, nil)

	svc := NewBookingService(repo, cache, cal, discardLogger())
	view, err := svc.Timetable(context.Background(), userUID, now)

	require.NoError(t, err)
	assert.Len(t, view.Dates, 24)
	assert.Equal(t, "2025-09-10", view.Dates[0].Raw)
	assert.Equal(t, "10-09-2025", view.Dates[0].Pretty)
	assert.Equal(t, []string{"19:00", "20:00", "21:00"}, view.Times)
	assert.Equal(t, []string{"2025-09-10 19:00"}, view.Booked)
	assert.Equal(t, 11, view.RemainingCredits)
	assert.InDelta(t, 1.0, view.CutoffHours, 0.001)

	// до 18:00 еще далеко — отменить можно, будущие недели тем более
	assert.True(t, view.Cancellable["2025-09-10 19:00"])
	assert.True(t, view.Cancellable["2025-09-17 19:00"])
	assert.Len(t, view.Cancellable, 24*3)
}
