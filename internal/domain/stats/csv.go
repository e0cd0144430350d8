package stats

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// CSV is the tabular rendering of a Snapshot. Each table is an independent CSV document.
type CSV struct {
	DeadlineStatistics  string `json:"deadline_statistics"`
	AmountStatistics    string `json:"amount_statistics"`
	UrgentDeadlines     string `json:"urgent_deadlines"`
	HighAmountSubsidies string `json:"high_amount_subsidies"`
	TotalCount          int    `json:"total_count"`
	GeneratedAt         string `json:"statistics_generated_at"`
	Format              string `json:"format"`
}

// ToCSV renders s as four tables. Empty lists render as a header row only.
func (s Snapshot) ToCSV() (CSV, error) {
	d := s.ByDeadlinePeriod
	deadline, err := writeTable([]string{"期間", "件数"}, [][]string{
		{"受付中", strconv.Itoa(d.Accepting)},
		{"今月締切", strconv.Itoa(d.ThisMonth)},
		{"来月締切", strconv.Itoa(d.NextMonth)},
		{"再来月以降", strconv.Itoa(d.AfterNextMonth)},
	})
	if err != nil {
		return CSV{}, err
	}

	a := s.ByAmountRange
	amount, err := writeTable([]string{"金額規模", "件数"}, [][]string{
		{"100万円以下", strconv.Itoa(a.Under1M)},
		{"1000万円以下", strconv.Itoa(a.Under10M)},
		{"1億円以下", strconv.Itoa(a.Under100M)},
		{"1億円超", strconv.Itoa(a.Over100M)},
		{"金額未設定", strconv.Itoa(a.Unspecified)},
	})
	if err != nil {
		return CSV{}, err
	}

	urgentRows := make([][]string, 0, len(s.UrgentDeadlines))
	for _, u := range s.UrgentDeadlines {
		urgentRows = append(urgentRows, []string{u.ID, u.Title, strconv.Itoa(u.DaysLeft)})
	}
	urgent, err := writeTable([]string{"補助金ID", "補助金名", "残り日数"}, urgentRows)
	if err != nil {
		return CSV{}, err
	}

	highRows := make([][]string, 0, len(s.HighAmountSubsidies))
	for _, h := range s.HighAmountSubsidies {
		highRows = append(highRows, []string{h.ID, h.Title, FormatYen(h.MaxAmount)})
	}
	high, err := writeTable([]string{"補助金ID", "補助金名", "最大金額"}, highRows)
	if err != nil {
		return CSV{}, err
	}

	return CSV{
		DeadlineStatistics:  deadline,
		AmountStatistics:    amount,
		UrgentDeadlines:     urgent,
		HighAmountSubsidies: high,
		TotalCount:          s.TotalCount,
		GeneratedAt:         s.GeneratedAt,
		Format:              "csv",
	}, nil
}

// FormatYen rounds to whole yen and inserts thousands separators.
func FormatYen(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func writeTable(header []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", err
	}
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}
