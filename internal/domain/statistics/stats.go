// internal/domain/statistics/stats.go
package statistics

import (
	"math"
	"time"
)

// DemandEvent is one historical procurement line for an item
type DemandEvent struct {
	Date     time.Time
	Quantity int
}

// LeadTimeSample is one completed receipt with the order date of its
// purchase order
type LeadTimeSample struct {
	OrderedAt  time.Time
	ReceivedAt time.Time
}

// DailyTotals buckets demand events into per-day totals over [from, to).
// Days without activity contribute an explicit zero so the mean and
// deviation describe the whole window, not just active days.
func DailyTotals(events []DemandEvent, from, to time.Time) []float64 {
	from = from.Truncate(24 * time.Hour)
	to = to.Truncate(24 * time.Hour)
	days := int(to.Sub(from).Hours() / 24)
	if days <= 0 {
		return nil
	}

	totals := make([]float64, days)
	for _, ev := range events {
		day := ev.Date.Truncate(24 * time.Hour)
		idx := int(day.Sub(from).Hours() / 24)
		if idx < 0 || idx >= days {
			continue
		}
		totals[idx] += float64(ev.Quantity)
	}
	return totals
}

// MeanStdDev computes the mean and sample standard deviation of values.
// With fewer than two values the deviation is zero.
func MeanStdDev(values []float64) (mean, stddev float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	if n < 2 {
		return mean, 0
	}

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	stddev = math.Sqrt(sq / float64(n-1))
	return mean, stddev
}

// MeanLeadTimeDays computes the average of (received - ordered) in days.
// Negative samples are clock artifacts and are clamped to zero.
func MeanLeadTimeDays(samples []LeadTimeSample) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		days := s.ReceivedAt.Sub(s.OrderedAt).Hours() / 24
		if days < 0 {
			days = 0
		}
		sum += days
	}
	return sum / float64(len(samples))
}
