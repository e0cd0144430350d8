// Package stats derives deadline and amount statistics from search rows.
// The upstream API has no aggregation endpoint, so everything here is computed locally.
package stats

import (
	"math"
	"time"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain/subsidy"
)

// Classification thresholds.
const (
	ThisMonthDays = 30
	NextMonthDays = 60
	UrgentDays    = 14

	Amount1M   = 1_000_000
	Amount10M  = 10_000_000
	Amount100M = 100_000_000
	HighAmount = 50_000_000
)

// DeadlineHistogram counts subsidies by days left until the acceptance deadline.
// Accepting is always zero.
type DeadlineHistogram struct {
	Accepting      int `json:"accepting"`
	ThisMonth      int `json:"this_month"`
	NextMonth      int `json:"next_month"`
	AfterNextMonth int `json:"after_next_month"`
}

// AmountHistogram counts subsidies by maximum award.
type AmountHistogram struct {
	Under1M     int `json:"under_1m"`
	Under10M    int `json:"under_10m"`
	Under100M   int `json:"under_100m"`
	Over100M    int `json:"over_100m"`
	Unspecified int `json:"unspecified"`
}

// UrgentDeadline is a subsidy closing within UrgentDays.
type UrgentDeadline struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	DaysLeft int    `json:"days_left"`
}

// HighAmountSubsidy is a subsidy whose maximum award is at least HighAmount.
type HighAmountSubsidy struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	MaxAmount float64 `json:"max_amount"`
}

// Snapshot is the full statistics result.
type Snapshot struct {
	TotalCount          int                 `json:"total_count"`
	ByDeadlinePeriod    DeadlineHistogram   `json:"by_deadline_period"`
	ByAmountRange       AmountHistogram     `json:"by_amount_range"`
	UrgentDeadlines     []UrgentDeadline    `json:"urgent_deadlines"`
	HighAmountSubsidies []HighAmountSubsidy `json:"high_amount_subsidies"`
	GeneratedAt         string              `json:"statistics_generated_at"`
}

// Build classifies rows at time now. totalCount is echoed as is.
func Build(totalCount int, rows []subsidy.Summary, now time.Time) Snapshot {
	now = now.UTC()
	s := Snapshot{
		TotalCount:          totalCount,
		UrgentDeadlines:     []UrgentDeadline{},
		HighAmountSubsidies: []HighAmountSubsidy{},
		GeneratedAt:         now.Format(time.RFC3339Nano),
	}

	for _, row := range rows {
		s.classifyDeadline(row, now)
		s.classifyAmount(row)
	}
	return s
}

// DaysLeft returns whole days from now until end, rounded toward negative infinity.
func DaysLeft(end, now time.Time) int {
	return int(math.Floor(end.Sub(now).Hours() / 24))
}

func (s *Snapshot) classifyDeadline(row subsidy.Summary, now time.Time) {
	if row.AcceptanceEndDatetime == "" {
		return
	}
	end, err := subsidy.ParseTimestamp(row.AcceptanceEndDatetime)
	if err != nil {
		return
	}

	days := DaysLeft(end, now)
	switch {
	case days < 0:
		return
	case days <= ThisMonthDays:
		s.ByDeadlinePeriod.ThisMonth++
	case days <= NextMonthDays:
		s.ByDeadlinePeriod.NextMonth++
	default:
		s.ByDeadlinePeriod.AfterNextMonth++
	}

	if days <= UrgentDays {
		s.UrgentDeadlines = append(s.UrgentDeadlines, UrgentDeadline{
			ID:       row.ID,
			Title:    row.Title,
			DaysLeft: days,
		})
	}
}

func (s *Snapshot) classifyAmount(row subsidy.Summary) {
	amount, ok := row.SubsidyMaxLimit.Value()
	if !ok {
		s.ByAmountRange.Unspecified++
		return
	}

	switch {
	case amount <= Amount1M:
		s.ByAmountRange.Under1M++
	case amount <= Amount10M:
		s.ByAmountRange.Under10M++
	case amount <= Amount100M:
		s.ByAmountRange.Under100M++
	default:
		s.ByAmountRange.Over100M++
	}

	if amount >= HighAmount {
		s.HighAmountSubsidies = append(s.HighAmountSubsidies, HighAmountSubsidy{
			ID:        row.ID,
			Title:     row.Title,
			MaxAmount: amount,
		})
	}
}
