// Package booking derives the helper values of the lesson booking form: the
// end time one hour after the chosen start, and the earliest bookable date.
package booking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Form element names.
const (
	FormID         = "lesson-booking-form"
	StartTimeField = "start_time"
	EndTimeField   = "end_time"
)

// LessonLength is the default lesson duration.
const LessonLength = time.Hour

var startLayouts = []string{"15:04", "15:04:05"}

// EndTime returns start + LessonLength as HH:MM, wrapping past midnight.
func EndTime(start string) (string, error) {
	for _, layout := range startLayouts {
		t, err := time.Parse(layout, start)
		if err == nil {
			return t.Add(LessonLength).Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("invalid start time %q", start)
}

// MinDate returns the earliest bookable date, today in UTC, as YYYY-MM-DD.
func MinDate(now time.Time) string {
	return now.UTC().Format(time.DateOnly)
}

// Form is a page exposing the booking form inputs.
type Form interface {
	InputValue(ctx context.Context, formID, name string) (string, bool, error)
	SetInputValue(ctx context.Context, formID, name, value string) error
	SetDateMin(ctx context.Context, formID, value string) (bool, error)
}

// Result describes what Enhance changed.
type Result struct {
	DateMin string
	EndTime string
}

// Enhance applies the date minimum and derives the end time from the
// current start time. A page without the form is left alone. An invalid or
// empty start time leaves the end time untouched.
func Enhance(ctx context.Context, f Form, now time.Time) (Result, error) {
	var res Result

	minDate := MinDate(now)
	found, err := f.SetDateMin(ctx, FormID, minDate)
	if err != nil {
		return res, fmt.Errorf("set date minimum: %w", err)
	}
	if found {
		res.DateMin = minDate
	}

	start, ok, err := f.InputValue(ctx, FormID, StartTimeField)
	if err != nil {
		return res, fmt.Errorf("read start time: %w", err)
	}
	if !ok || start == "" {
		return res, nil
	}
	if _, ok, err := f.InputValue(ctx, FormID, EndTimeField); err != nil || !ok {
		return res, err
	}
	end, err := EndTime(start)
	if err != nil {
		return res, nil
	}
	if err := f.SetInputValue(ctx, FormID, EndTimeField, end); err != nil {
		return res, fmt.Errorf("set end time: %w", err)
	}
	res.EndTime = end
	return res, nil
}

// Watcher reports edits to a form input on a live page. handler receives the
// new value each time the input's change event fires.
type Watcher interface {
	WatchInput(ctx context.Context, formID, name string, handler func(value string)) (stop func() error, err error)
}

// Follow keeps the end time one lesson after the start time while the user
// edits the form. Invalid start times are ignored.
func Follow(ctx context.Context, f Form, w Watcher, logger *zap.Logger) (stop func() error, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return w.WatchInput(ctx, FormID, StartTimeField, func(start string) {
		end, err := EndTime(start)
		if err != nil {
			logger.Debug("start time not usable", zap.String("start", start), zap.Error(err))
			return
		}
		if err := f.SetInputValue(ctx, FormID, EndTimeField, end); err != nil {
			logger.Warn("end time not updated", zap.Error(err))
			return
		}
		logger.Debug("end time updated", zap.String("start", start), zap.String("end", end))
	})
}
