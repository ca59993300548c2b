package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalendar(t *testing.T) *Calendar {
	t.Helper()
	cal, err := New("Australia/Sydney", "2025-09-06", "Wednesday", 24,
		[]string{"19:00", "20:00", "21:00"}, time.Hour)
	require.NoError(t, err)
	return cal
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		anchor   string
		weekday  string
		weeks    int
		times    []string
		wantErr  bool
	}{
		{
			name:     "valid calendar",
			timezone: "Australia/Sydney",
			anchor:   "2025-09-06",
			weekday:  "Wednesday",
			weeks:    24,
			times:    []string{"19:00"},
			wantErr:  false,
		},
		{
			name:     "unknown timezone",
			timezone: "Mars/Olympus",
			anchor:   "2025-09-06",
			weekday:  "Wednesday",
			weeks:    24,
			times:    []string{"19:00"},
			wantErr:  true,
		},
		{
			name:     "bad anchor date",
			timezone: "Australia/Sydney",
			anchor:   "06-09-2025",
			weekday:  "Wednesday",
			weeks:    24,
			times:    []string{"19:00"},
			wantErr:  true,
		},
		{
			name:     "unknown weekday",
			timezone: "Australia/Sydney",
			anchor:   "2025-09-06",
			weekday:  "Zoukday",
			weeks:    24,
			times:    []string{"19:00"},
			wantErr:  true,
		},
		{
			name:     "zero weeks",
			timezone: "Australia/Sydney",
			anchor:   "2025-09-06",
			weekday:  "Wednesday",
			weeks:    0,
			times:    []string{"19:00"},
			wantErr:  true,
		},
		{
			name:     "no slot times",
			timezone: "Australia/Sydney",
			anchor:   "2025-09-06",
			weekday:  "Wednesday",
			weeks:    24,
			times:    nil,
			wantErr:  true,
		},
		{
			name:     "bad slot time",
			timezone: "Australia/Sydney",
			anchor:   "2025-09-06",
			weekday:  "Wednesday",
			weeks:    24,
			times:    []string{"7pm"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.timezone, tt.anchor, tt.weekday, tt.weeks, tt.times, time.Hour)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSlotDates_AnchorSaturdayToWednesdays(t *testing.T) {
	cal := newTestCalendar(t)

	dates := cal.SlotDates()
	require.Len(t, dates, 24)

	// 2025-09-06 — суббота, первая среда после нее — 2025-09-10
	assert.Equal(t, "2025-09-10", dates[0])
	assert.Equal(t, "2025-09-17", dates[1])

	loc := cal.Location()
	prev, err := time.ParseInLocation(DateLayout, dates[0], loc)
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, prev.Weekday())

	for _, d := range dates[1:] {
		cur, err := time.ParseInLocation(DateLayout, d, loc)
		require.NoError(t, err)
		assert.Equal(t, time.Wednesday, cur.Weekday())
		assert.Equal(t, prev.AddDate(0, 0, 7), cur)
		prev = cur
	}
}

func TestSlotDates_AnchorOnTargetWeekday(t *testing.T) {
	cal, err := New("Australia/Sydney", "2025-09-10", "Wednesday", 2,
		[]string{"19:00"}, time.Hour)
	require.NoError(t, err)

	// якорная дата сама среда — расписание начинается с нее
	assert.Equal(t, []string{"2025-09-10", "2025-09-17"}, cal.SlotDates())
}

func TestSlotTimes_ReturnsCopy(t *testing.T) {
	cal := newTestCalendar(t)

	times := cal.SlotTimes()
	assert.Equal(t, []string{"19:00", "20:00", "21:00"}, times)

	times[0] = "06:00"
	assert.Equal(t, []string{"19:00", "20:00", "21:00"}, cal.SlotTimes())
}

func TestIsCancellable(t *testing.T) {
	cal := newTestCalendar(t)
	loc := cal.Location()
	slotStart := time.Date(2025, 9, 10, 19, 0, 0, 0, loc)

	tests := []struct {
		name string
		date string
		tm   string
		now  time.Time
		want bool
	}{
		{
			name: "well before cutoff",
			date: "2025-09-10",
			tm:   "19:00",
			now:  slotStart.Add(-3 * time.Hour),
			want: true,
		},
		{
			name: "30 minutes before slot with 1h cutoff",
			date: "2025-09-10",
			tm:   "19:00",
			now:  slotStart.Add(-30 * time.Minute),
			want: false,
		},
		{
			name: "exactly at cutoff is too late",
			date: "2025-09-10",
			tm:   "19:00",
			now:  slotStart.Add(-time.Hour),
			want: false,
		},
		{
			name: "just over cutoff",
			date: "2025-09-10",
			tm:   "19:00",
			now:  slotStart.Add(-time.Hour - time.Second),
			want: true,
		},
		{
			name: "after slot started",
			date: "2025-09-10",
			tm:   "19:00",
			now:  slotStart.Add(10 * time.Minute),
			want: false,
		},
		{
			name: "unparseable pair is not cancellable",
			date: "10-09-2025",
			tm:   "19:00",
			now:  slotStart.Add(-3 * time.Hour),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.IsCancellable(tt.date, tt.tm, tt.now))
		})
	}
}

func TestParseSlot(t *testing.T) {
	cal := newTestCalendar(t)

	slot, err := cal.ParseSlot("2025-09-10", "19:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 10, 19, 0, 0, 0, cal.Location()), slot)

	_, err = cal.ParseSlot("2025-13-40", "19:00")
	assert.Error(t, err)

	_, err = cal.ParseSlot("", "")
	assert.Error(t, err)
}

func TestSlotKey(t *testing.T) {
	assert.Equal(t, "2025-09-10 19:00", SlotKey("2025-09-10", "19:00"))
}
