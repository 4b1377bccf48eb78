package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kainan-app/api/internal/store"
)

var (
	ErrScheduleViolation = errors.New("requested slot is outside the allowed pre-order windows")
	ErrInvalidWindow     = errors.New("window start must be before end")
	ErrInvalidClockTime  = errors.New("invalid time, use HH:MM")
	ErrInvalidDate       = errors.New("invalid date, use YYYY-MM-DD")
)

// parseClockMinutes converts "HH:MM" to minutes since midnight.
func parseClockMinutes(s string) (int32, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	return int32(t.Hour()*60 + t.Minute()), nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// slotAllowed checks a requested date/time against the configured windows.
// With restrictions disabled every slot is allowed. Window bounds are
// inclusive on both ends.
func slotAllowed(windows []store.PreorderWindow, restrictionsEnabled bool, date time.Time, minutes int32) bool {
	if !restrictionsEnabled {
		return true
	}
	for _, w := range windows {
		if sameDate(w.Date, date) {
			return minutes >= w.StartMinutes && minutes <= w.EndMinutes
		}
	}
	return false
}

// ScheduleEntry is one owner-configured pre-order window, in wire form.
type ScheduleEntry struct {
	Date      string // YYYY-MM-DD
	StartTime string // HH:MM
	EndTime   string // HH:MM
}

// ScheduleStore defines the DB methods needed to manage the pre-order schedule.
type ScheduleStore interface {
	GetSettings(ctx context.Context) (store.Settings, error)
	SetPreorderRestrictionsEnabled(ctx context.Context, enabled bool) error
	ListPreorderWindows(ctx context.Context) ([]store.PreorderWindow, error)
	UpsertPreorderWindow(ctx context.Context, arg store.UpsertPreorderWindowParams) (store.PreorderWindow, error)
	DeleteAllPreorderWindows(ctx context.Context) error
}

// ScheduleService manages pre-order scheduling restrictions.
type ScheduleService struct {
	store ScheduleStore
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(s ScheduleStore) *ScheduleService {
	return &ScheduleService{store: s}
}

// SaveSchedule replaces the full window configuration. Entries are validated
// (parseable date/times, start strictly before end) before anything is
// written. When the payload repeats a date, the last entry wins.
func (s *ScheduleService) SaveSchedule(ctx context.Context, restrictionsEnabled bool, entries []ScheduleEntry) ([]store.PreorderWindow, error) {
	type parsedEntry struct {
		date       time.Time
		start, end int32
	}
	parsed := make([]parsedEntry, 0, len(entries))
	for i, e := range entries {
		date, err := parseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		start, err := parseClockMinutes(e.StartTime)
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		end, err := parseClockMinutes(e.EndTime)
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		if start >= end {
			return nil, fmt.Errorf("entries[%d]: %w", i, ErrInvalidWindow)
		}
		parsed = append(parsed, parsedEntry{date: date, start: start, end: end})
	}

	if err := s.store.SetPreorderRestrictionsEnabled(ctx, restrictionsEnabled); err != nil {
		return nil, fmt.Errorf("set restrictions flag: %w", err)
	}
	if err := s.store.DeleteAllPreorderWindows(ctx); err != nil {
		return nil, fmt.Errorf("clear windows: %w", err)
	}
	for _, p := range parsed {
		if _, err := s.store.UpsertPreorderWindow(ctx, store.UpsertPreorderWindowParams{
			Date:         p.date,
			StartMinutes: p.start,
			EndMinutes:   p.end,
		}); err != nil {
			return nil, fmt.Errorf("save window: %w", err)
		}
	}
	return s.store.ListPreorderWindows(ctx)
}

// ValidateSlot reports whether a requested date ("YYYY-MM-DD") and clock time
// ("HH:MM") fall within the configured windows.
func (s *ScheduleService) ValidateSlot(ctx context.Context, dateStr, timeStr string) (bool, error) {
	date, err := parseDate(dateStr)
	if err != nil {
		return false, err
	}
	minutes, err := parseClockMinutes(timeStr)
	if err != nil {
		return false, err
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return false, fmt.Errorf("get settings: %w", err)
	}
	if !settings.PreorderRestrictionsEnabled {
		return true, nil
	}
	windows, err := s.store.ListPreorderWindows(ctx)
	if err != nil {
		return false, fmt.Errorf("list windows: %w", err)
	}
	return slotAllowed(windows, true, date, minutes), nil
}
