package stats

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain/subsidy"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func endIn(d time.Duration) string {
	return now.Add(d).Format(time.RFC3339)
}

func days(n float64) time.Duration {
	return time.Duration(n * 24 * float64(time.Hour))
}

func TestDaysLeft(t *testing.T) {
	tests := []struct {
		offset time.Duration
		want   int
	}{
		{days(0.5), 0},
		{days(1), 1},
		{days(14.9), 14},
		{-time.Hour, -1},
		{days(-1.5), -2},
	}
	for _, tt := range tests {
		if got := DaysLeft(now.Add(tt.offset), now); got != tt.want {
			t.Errorf("DaysLeft(%v) = %d, want %d", tt.offset, got, tt.want)
		}
	}
}

func TestBuild_DeadlineBuckets(t *testing.T) {
	rows := []subsidy.Summary{
		{ID: "past", AcceptanceEndDatetime: endIn(-time.Hour)},
		{ID: "d0", AcceptanceEndDatetime: endIn(time.Hour)},
		{ID: "d14", AcceptanceEndDatetime: endIn(days(14.5))},
		{ID: "d15", AcceptanceEndDatetime: endIn(days(15.5))},
		{ID: "d30", AcceptanceEndDatetime: endIn(days(30.5))},
		{ID: "d31", AcceptanceEndDatetime: endIn(days(31.5))},
		{ID: "d60", AcceptanceEndDatetime: endIn(days(60.5))},
		{ID: "d61", AcceptanceEndDatetime: endIn(days(61.5))},
		{ID: "zulu", AcceptanceEndDatetime: now.Add(days(200)).UTC().Format("2006-01-02T15:04:05.000Z")},
		{ID: "bad", AcceptanceEndDatetime: "someday"},
		{ID: "none"},
	}

	s := Build(len(rows), rows, now)

	want := DeadlineHistogram{ThisMonth: 4, NextMonth: 2, AfterNextMonth: 2}
	if s.ByDeadlinePeriod != want {
		t.Errorf("ByDeadlinePeriod = %+v, want %+v", s.ByDeadlinePeriod, want)
	}
	if s.TotalCount != len(rows) {
		t.Errorf("TotalCount = %d", s.TotalCount)
	}

	var urgentIDs []string
	for _, u := range s.UrgentDeadlines {
		if u.DaysLeft < 0 || u.DaysLeft > UrgentDays {
			t.Errorf("urgent entry %q has %d days left", u.ID, u.DaysLeft)
		}
		urgentIDs = append(urgentIDs, u.ID)
	}
	if got := strings.Join(urgentIDs, ","); got != "d0,d14" {
		t.Errorf("urgent ids = %q, want d0,d14", got)
	}
}

func TestBuild_DeadlineBucketsAreExclusive(t *testing.T) {
	var rows []subsidy.Summary
	for d := -5; d <= 90; d++ {
		rows = append(rows, subsidy.Summary{
			ID:                    fmt.Sprintf("r%d", d),
			AcceptanceEndDatetime: endIn(days(float64(d) + 0.25)),
		})
	}

	s := Build(len(rows), rows, now)
	h := s.ByDeadlinePeriod
	total := h.Accepting + h.ThisMonth + h.NextMonth + h.AfterNextMonth
	if total != 91 {
		t.Errorf("non-past rows classified = %d, want 91", total)
	}
	if h.Accepting != 0 {
		t.Errorf("Accepting = %d, want 0", h.Accepting)
	}
	if len(s.UrgentDeadlines) != 15 {
		t.Errorf("urgent = %d, want 15", len(s.UrgentDeadlines))
	}
}

func TestBuild_AmountBuckets(t *testing.T) {
	rows := []subsidy.Summary{
		{ID: "a", SubsidyMaxLimit: subsidy.AmountOf(`1000000`)},
		{ID: "b", SubsidyMaxLimit: subsidy.AmountOf(`"1000001"`)},
		{ID: "c", SubsidyMaxLimit: subsidy.AmountOf(`10000000`)},
		{ID: "d", SubsidyMaxLimit: subsidy.AmountOf(`50000000`)},
		{ID: "e", SubsidyMaxLimit: subsidy.AmountOf(`100000000`)},
		{ID: "f", SubsidyMaxLimit: subsidy.AmountOf(`100000001`)},
		{ID: "g", SubsidyMaxLimit: subsidy.AmountOf(`"上限なし"`)},
		{ID: "h", SubsidyMaxLimit: subsidy.AmountOf(`""`)},
		{ID: "i"},
		{ID: "j", SubsidyMaxLimit: subsidy.AmountOf(`0`)},
		{ID: "k", SubsidyMaxLimit: subsidy.AmountOf(`"0"`)},
		{ID: "l", SubsidyMaxLimit: subsidy.AmountOf(`false`)},
	}

	s := Build(len(rows), rows, now)

	want := AmountHistogram{Under1M: 2, Under10M: 2, Under100M: 2, Over100M: 1, Unspecified: 5}
	if s.ByAmountRange != want {
		t.Errorf("ByAmountRange = %+v, want %+v", s.ByAmountRange, want)
	}

	h := s.ByAmountRange
	if sum := h.Under1M + h.Under10M + h.Under100M + h.Over100M + h.Unspecified; sum != len(rows) {
		t.Errorf("amount buckets sum = %d, want %d", sum, len(rows))
	}

	if len(s.HighAmountSubsidies) != 3 {
		t.Fatalf("high amount = %+v", s.HighAmountSubsidies)
	}
	if s.HighAmountSubsidies[0].ID != "d" || s.HighAmountSubsidies[0].MaxAmount != 50000000 {
		t.Errorf("first high amount = %+v", s.HighAmountSubsidies[0])
	}
}

func TestBuild_DeadlineFailureStillClassifiesAmount(t *testing.T) {
	rows := []subsidy.Summary{{ID: "x", AcceptanceEndDatetime: "bad", SubsidyMaxLimit: subsidy.AmountOf(`500`)}}
	s := Build(1, rows, now)
	if s.ByAmountRange.Under1M != 1 {
		t.Errorf("Under1M = %d, want 1", s.ByAmountRange.Under1M)
	}
	if s.ByDeadlinePeriod != (DeadlineHistogram{}) {
		t.Errorf("ByDeadlinePeriod = %+v, want zero", s.ByDeadlinePeriod)
	}
}

func TestBuild_Empty(t *testing.T) {
	s := Build(0, nil, now)
	if s.UrgentDeadlines == nil || s.HighAmountSubsidies == nil {
		t.Error("lists must be empty, not nil")
	}
	if s.GeneratedAt != "2025-06-01T12:00:00Z" {
		t.Errorf("GeneratedAt = %q", s.GeneratedAt)
	}
}

func TestToCSV_Empty(t *testing.T) {
	c, err := Build(0, nil, now).ToCSV()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.TotalCount != 0 {
		t.Errorf("TotalCount = %d", c.TotalCount)
	}
	if c.Format != "csv" {
		t.Errorf("Format = %q", c.Format)
	}
	if c.UrgentDeadlines != "補助金ID,補助金名,残り日数\n" {
		t.Errorf("UrgentDeadlines = %q", c.UrgentDeadlines)
	}
	if c.HighAmountSubsidies != "補助金ID,補助金名,最大金額\n" {
		t.Errorf("HighAmountSubsidies = %q", c.HighAmountSubsidies)
	}
	if !strings.HasPrefix(c.DeadlineStatistics, "期間,件数\n受付中,0\n") {
		t.Errorf("DeadlineStatistics = %q", c.DeadlineStatistics)
	}
}

func TestToCSV_Rows(t *testing.T) {
	rows := []subsidy.Summary{
		{ID: "s1", Title: "ものづくり, 補助金", AcceptanceEndDatetime: endIn(days(3.5)), SubsidyMaxLimit: subsidy.AmountOf(`125000000`)},
	}
	c, err := Build(1, rows, now).ToCSV()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "補助金ID,補助金名,残り日数\ns1,\"ものづくり, 補助金\",3\n"; c.UrgentDeadlines != want {
		t.Errorf("UrgentDeadlines = %q, want %q", c.UrgentDeadlines, want)
	}
	if want := "補助金ID,補助金名,最大金額\ns1,\"ものづくり, 補助金\",\"125,000,000\"\n"; c.HighAmountSubsidies != want {
		t.Errorf("HighAmountSubsidies = %q, want %q", c.HighAmountSubsidies, want)
	}
	if !strings.Contains(c.AmountStatistics, "1億円超,1\n") {
		t.Errorf("AmountStatistics = %q", c.AmountStatistics)
	}
}

func TestFormatYen(t *testing.T) {
	if got := FormatYen(50000000); got != "50,000,000" {
		t.Errorf("FormatYen = %q", got)
	}
	if got := FormatYen(999.6); got != "1,000" {
		t.Errorf("FormatYen = %q", got)
	}
}
