package attachment

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain/subsidy"
	"github.com/kailas-cloud/jgrants-mcp/internal/repository/files"
)

// --- Mocks ---

type brokenStore struct {
	dirErr   error
	writeErr error
}

func (m *brokenStore) Dir(id string) (string, error) { return "/nowhere/" + id, nil }

func (m *brokenStore) EnsureDir(id string) (string, error) {
	if m.dirErr != nil {
		return "", m.dirErr
	}
	return "/nowhere/" + id, nil
}

func (m *brokenStore) Write(_, _ string, _ []byte) error { return m.writeErr }

// --- Tests ---

func ptr(s string) *string { return &s }

func newStore(t *testing.T) *files.Store {
	t.Helper()
	store, err := files.New(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("files.New: %v", err)
	}
	return store
}

func TestPersist_ValidAndEmpty(t *testing.T) {
	store := newStore(t)
	p := New(store, zap.NewNop())

	payload := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 body"))
	report := p.Persist("a0WJ", map[subsidy.Category][]subsidy.Attachment{
		subsidy.CategoryGuidelines: {
			{Name: "公募要領 2025.pdf", Data: ptr(payload)},
			{Name: "empty.pdf", Data: ptr("   ")},
		},
	})

	entries := report.Files[subsidy.CategoryGuidelines]
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}

	ok := entries[0]
	if ok.Failed() || ok.Name != "公募要領_2025.pdf" || ok.OriginalName != "公募要領 2025.pdf" || ok.Size != 13 {
		t.Errorf("unexpected success entry: %+v", ok)
	}
	if ok.MCPAccess == nil || ok.MCPAccess.Params["filename"] != "公募要領_2025.pdf" || ok.MCPAccess.Params["subsidy_id"] != "a0WJ" {
		t.Errorf("unexpected access descriptor: %+v", ok.MCPAccess)
	}

	bad := entries[1]
	if !bad.Failed() || bad.Name != "empty.pdf" || !strings.Contains(bad.Error, "empty payload") {
		t.Errorf("unexpected failure entry: %+v", bad)
	}

	if report.SaveDirectory != filepath.Join(store.Root(), "a0WJ") {
		t.Errorf("unexpected save directory: %s", report.SaveDirectory)
	}
	got, err := os.ReadFile(filepath.Join(report.SaveDirectory, "公募要領_2025.pdf"))
	if err != nil || string(got) != "%PDF-1.4 body" {
		t.Errorf("unexpected file contents %q (err %v)", got, err)
	}
}

func TestPersist_LogsSavedAndFailedCounts(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := New(newStore(t), zap.New(core))

	p.Persist("a0WJ", map[subsidy.Category][]subsidy.Attachment{
		subsidy.CategoryGuidelines: {{Name: "a.pdf", Data: ptr("aGVsbG8=")}},
		subsidy.CategoryOutline:    {{Name: "b.pdf", Data: ptr("")}, {Name: "c.pdf", Data: ptr("aGk=")}},
	})

	entries := logs.FilterMessage("attachments persisted").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 summary entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["saved"] != int64(2) || fields["failed"] != int64(1) || fields["subsidy_id"] != "a0WJ" {
		t.Errorf("unexpected summary fields: %v", fields)
	}
}

func TestPersist_CategoryOrderAndFallbackNames(t *testing.T) {
	p := New(newStore(t), nil)
	data := ptr("aGVsbG8=")

	report := p.Persist("x1", map[subsidy.Category][]subsidy.Attachment{
		subsidy.CategoryForm:    {{Data: data}},
		subsidy.CategoryOutline: {{Name: "", Data: data}, {Name: "../../etc/passwd", Data: data}},
	})

	if _, ok := report.Files[subsidy.CategoryGuidelines]; ok {
		t.Error("categories without items must not appear")
	}
	outline := report.Files[subsidy.CategoryOutline]
	if len(outline) != 2 {
		t.Fatalf("expected 2 outline entries, got %+v", outline)
	}
	if outline[0].Name != "補助金概要_1.pdf" {
		t.Errorf("expected fallback name, got %q", outline[0].Name)
	}
	if outline[1].Name != ".._.._etc_passwd" {
		t.Errorf("expected separators replaced, got %q", outline[1].Name)
	}
	if form := report.Files[subsidy.CategoryForm]; len(form) != 1 || form[0].Name != "申請書_1.pdf" {
		t.Errorf("unexpected form entries: %+v", form)
	}
}

func TestPersist_SkipsMissingPayload(t *testing.T) {
	p := New(newStore(t), nil)

	report := p.Persist("x1", map[subsidy.Category][]subsidy.Attachment{
		subsidy.CategoryGuidelines: {{Name: "nothing.pdf"}, {Name: "ok.pdf", Data: ptr("aGk")}},
	})

	entries := report.Files[subsidy.CategoryGuidelines]
	if len(entries) != 1 || entries[0].Name != "ok.pdf" || entries[0].Size != 2 {
		t.Errorf("expected only ok.pdf, got %+v", entries)
	}
}

func TestPersist_DecodeFailure(t *testing.T) {
	p := New(newStore(t), nil)

	report := p.Persist("x1", map[subsidy.Category][]subsidy.Attachment{
		subsidy.CategoryGuidelines: {{Name: "bad.pdf", Data: ptr("!!!not base64!!!")}},
	})

	entries := report.Files[subsidy.CategoryGuidelines]
	if len(entries) != 1 || !entries[0].Failed() || entries[0].Name != "bad.pdf" {
		t.Errorf("expected decode failure, got %+v", entries)
	}
}

func TestPersist_DirectoryFailure(t *testing.T) {
	p := New(&brokenStore{dirErr: errors.New("read-only fs")}, nil)

	report := p.Persist("x1", map[subsidy.Category][]subsidy.Attachment{
		subsidy.CategoryGuidelines: {{Name: "a.pdf", Data: ptr("aGk=")}, {Name: "b.pdf", Data: ptr("aGk=")}},
	})

	entries := report.Files[subsidy.CategoryGuidelines]
	if len(entries) != 2 {
		t.Fatalf("expected 2 failures, got %+v", entries)
	}
	for _, e := range entries {
		if !e.Failed() || !strings.Contains(e.Error, "read-only fs") {
			t.Errorf("unexpected entry: %+v", e)
		}
	}
}

func TestPersist_WriteFailure(t *testing.T) {
	p := New(&brokenStore{writeErr: errors.New("disk full")}, nil)

	report := p.Persist("x1", map[subsidy.Category][]subsidy.Attachment{
		subsidy.CategoryForm: {{Name: "f.docx", Data: ptr("aGk=")}},
	})

	entries := report.Files[subsidy.CategoryForm]
	if len(entries) != 1 || entries[0].Error != "failed to save (f.docx): disk full" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"aGVsbG8=", "hello"},
		{"aGVsbG8", "hello"},
		{"aGVs\nbG8=\n", "hello"},
		{" aG Vs bG 8= ", "hello"},
	}
	for _, tt := range tests {
		got, err := Decode(tt.in)
		if err != nil || string(got) != tt.want {
			t.Errorf("Decode(%q) = (%q, %v), want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := Decode("a"); err == nil {
		t.Error("expected error for truncated input")
	}
}

func TestPersist_RoundTrip(t *testing.T) {
	store := newStore(t)
	p := New(store, nil)

	original := make([]byte, 1024)
	for i := range original {
		original[i] = byte(i * 7)
	}
	report := p.Persist("rt", map[subsidy.Category][]subsidy.Attachment{
		subsidy.CategoryOutline: {{Name: "bin.dat", Data: ptr(base64.StdEncoding.EncodeToString(original))}},
	})
	if e := report.Files[subsidy.CategoryOutline][0]; e.Failed() {
		t.Fatalf("unexpected failure: %+v", e)
	}

	got, err := store.Read("rt", "bin.dat")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(original) {
		t.Error("round trip mismatch")
	}
}
