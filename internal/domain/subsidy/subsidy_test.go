package subsidy

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-31T08:00:00.000Z", time.Date(2025, 3, 31, 8, 0, 0, 0, time.UTC)},
		{"2025-03-31T17:00:00+09:00", time.Date(2025, 3, 31, 8, 0, 0, 0, time.UTC)},
		{"2025-03-31T08:00:00", time.Date(2025, 3, 31, 8, 0, 0, 0, time.UTC)},
		{"2025-03-31 08:00:00", time.Date(2025, 3, 31, 8, 0, 0, 0, time.UTC)},
		{"2025-03-31", time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "tomorrow", "2025/03/31", "31-03-2025"} {
		if _, err := ParseTimestamp(in); err == nil {
			t.Errorf("ParseTimestamp(%q): expected error", in)
		}
	}
}

func TestDetailStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  string
		want Status
	}{
		{"one day ahead", now.Add(24 * time.Hour).Format(time.RFC3339), StatusOpen},
		{"one day behind", now.Add(-24 * time.Hour).Format(time.RFC3339), StatusClosed},
		{"exactly now", now.Format(time.RFC3339), StatusOpen},
		{"missing", "", StatusOpen},
		{"garbage", "not a date", StatusOpen},
		{"other offset", "2025-06-01T20:00:00+09:00", StatusClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Detail{AcceptanceEndDatetime: tt.end}
			if got := d.Status(now); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetailBody(t *testing.T) {
	if got := (Detail{Detail: "<p>a</p>", Description: "b"}).Body(); got != "<p>a</p>" {
		t.Errorf("Body() = %q", got)
	}
	if got := (Detail{Description: "b"}).Body(); got != "b" {
		t.Errorf("Body() = %q", got)
	}
}

func TestAmountValue(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{`1000000`, 1000000, true},
		{`"50000000"`, 50000000, true},
		{`" 2.5e7 "`, 25000000, true},
		{`0`, 0, false},
		{`0.0`, 0, false},
		{`"0"`, 0, true},
		{`""`, 0, false},
		{`null`, 0, false},
		{`"未定"`, 0, false},
		{`"1,000"`, 0, false},
		{`"NaN"`, 0, false},
		{`true`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := AmountOf(tt.raw).Value()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Value() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAmountRoundTrip(t *testing.T) {
	var s Summary
	if err := json.Unmarshal([]byte(`{"id":"a","subsidy_max_limit":"300"}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(s.SubsidyMaxLimit)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"300"` {
		t.Errorf("marshal = %s, want %q", out, `"300"`)
	}

	var missing Summary
	_ = json.Unmarshal([]byte(`{"id":"b"}`), &missing)
	if missing.SubsidyMaxLimit.IsSet() {
		t.Error("absent amount reported as set")
	}
}

func TestAttachmentUnmarshal(t *testing.T) {
	raw := `[
		{"name": "a.pdf", "data": "QUJD"},
		{"file_name": "b.pdf", "file_data": "REVG"},
		{"name": "c.pdf", "data": ""},
		{"name": "d.pdf"},
		"not an object"
	]`
	var items []Attachment
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(items))
	}
	if items[0].Name != "a.pdf" || items[0].Data == nil || *items[0].Data != "QUJD" {
		t.Errorf("item 0 = %+v", items[0])
	}
	if items[1].Name != "b.pdf" || items[1].Data == nil || *items[1].Data != "REVG" {
		t.Errorf("item 1 = %+v", items[1])
	}
	if items[2].Data == nil || *items[2].Data != "" {
		t.Errorf("item 2: expected present empty payload, got %+v", items[2])
	}
	if items[3].Data != nil {
		t.Errorf("item 3: expected absent payload, got %q", *items[3].Data)
	}
	if items[4].Name != "" || items[4].Data != nil {
		t.Errorf("item 4: expected empty attachment, got %+v", items[4])
	}
}

func TestCategoryLabel(t *testing.T) {
	for _, c := range Categories {
		if c.Label() == string(c) {
			t.Errorf("category %q has no label", c)
		}
	}
}
