package pricing

import (
	"math"
	"strings"
	"time"
)

// DiscountState is the resolved activation mode of a discount.
// It is one of Inactive, ExplicitFlag or WindowBased.
type DiscountState interface {
	Active(now time.Time) bool
	isDiscountState()
}

// Inactive is used when the percent is zero, negative or not a number.
type Inactive struct{}

func (Inactive) Active(time.Time) bool { return false }
func (Inactive) isDiscountState()      {}

// ExplicitFlag wins over any date window.
type ExplicitFlag struct {
	Value bool
}

func (f ExplicitFlag) Active(time.Time) bool { return f.Value }
func (ExplicitFlag) isDiscountState()        {}

// WindowBased is the legacy activation path. A nil bound does not constrain.
type WindowBased struct {
	Start *time.Time
	End   *time.Time
}

func (w WindowBased) Active(now time.Time) bool {
	if w.Start != nil && now.Before(*w.Start) {
		return false
	}
	if w.End != nil && now.After(*w.End) {
		return false
	}

	return true
}

func (WindowBased) isDiscountState() {}

// Source holds the raw discount columns as they come from storage or a form.
type Source struct {
	Percent float64
	Active  *bool
	StartAt *time.Time
	EndAt   *time.Time
}

// Resolve turns raw nullable fields into a DiscountState.
func Resolve(src *Source) DiscountState {
	if src == nil || math.IsNaN(src.Percent) || math.IsInf(src.Percent, 0) || src.Percent <= 0 {
		return Inactive{}
	}

	if src.Active != nil {
		return ExplicitFlag{Value: *src.Active}
	}

	return WindowBased{Start: src.StartAt, End: src.EndAt}
}

func IsDiscountActive(src *Source, now time.Time) bool {
	return Resolve(src).Active(now)
}

var windowLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseWindowBound parses a window bound. Blank or unparseable input yields nil.
func ParseWindowBound(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range windowLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}

	return nil
}
