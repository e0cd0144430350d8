package attachment

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	domatt "github.com/kailas-cloud/jgrants-mcp/internal/domain/attachment"
	"github.com/kailas-cloud/jgrants-mcp/internal/domain/subsidy"
	"github.com/kailas-cloud/jgrants-mcp/internal/metrics"
)

var (
	errEmptyPayload = errors.New("empty payload")
	errEmptyDecoded = errors.New("decoded payload is empty")
)

// Persister writes embedded attachments to the store and reports per item.
type Persister struct {
	store  Store
	logger *zap.Logger
}

// New creates a Persister. logger receives per-item debug lines.
func New(store Store, logger *zap.Logger) *Persister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persister{store: store, logger: logger}
}

// Persist stores every attachment of subsidyID. Failures never abort the
// call; they become failure entries in the report.
func (p *Persister) Persist(subsidyID string, groups map[subsidy.Category][]subsidy.Attachment) domatt.Report {
	report := domatt.Report{Files: map[subsidy.Category][]domatt.Entry{}}
	if dir, err := p.store.Dir(subsidyID); err == nil {
		report.SaveDirectory = dir
	}

	for _, category := range subsidy.Categories {
		items := groups[category]
		if len(items) == 0 {
			continue
		}
		report.Files[category] = p.persistCategory(subsidyID, category, items)
	}

	saved, failed := 0, 0
	for _, entries := range report.Files {
		for _, e := range entries {
			if e.Failed() {
				failed++
			} else {
				saved++
			}
		}
	}
	p.logger.Debug("attachments persisted",
		zap.String("subsidy_id", subsidyID),
		zap.Int("saved", saved),
		zap.Int("failed", failed),
	)
	return report
}

func (p *Persister) persistCategory(subsidyID string, category subsidy.Category, items []subsidy.Attachment) []domatt.Entry {
	log := p.logger.With(zap.String("subsidy_id", subsidyID), zap.String("category", string(category)))

	entries := make([]domatt.Entry, 0, len(items))
	if _, err := p.store.EnsureDir(subsidyID); err != nil {
		log.Debug("cannot create subsidy dir", zap.Error(err))
		for i, item := range items {
			if item.Data == nil {
				continue
			}
			entries = append(entries, p.fail(category, displayName(category, i, item), err))
		}
		return entries
	}

	for i, item := range items {
		if item.Data == nil {
			log.Debug("attachment without payload skipped", zap.Int("index", i))
			continue
		}
		entries = append(entries, p.persistOne(log, subsidyID, category, i, item))
	}
	return entries
}

func (p *Persister) persistOne(
	log *zap.Logger, subsidyID string, category subsidy.Category, index int, item subsidy.Attachment,
) domatt.Entry {
	original := displayName(category, index, item)

	if strings.TrimSpace(*item.Data) == "" {
		return p.fail(category, original, errEmptyPayload)
	}

	name := domatt.Sanitize(original, domatt.FallbackName(category, index))

	data, err := Decode(*item.Data)
	if err != nil {
		log.Debug("base64 decode failed", zap.String("name", original), zap.Error(err))
		return p.fail(category, original, fmt.Errorf("base64 decode: %w", err))
	}
	if len(data) == 0 {
		return p.fail(category, original, errEmptyDecoded)
	}

	if err := p.store.Write(subsidyID, name, data); err != nil {
		log.Debug("write failed", zap.String("name", name), zap.Error(err))
		return p.fail(category, original, err)
	}

	log.Debug("attachment saved", zap.String("name", name), zap.Int("size", len(data)))
	metrics.AttachmentsTotal.WithLabelValues(string(category), "stored").Inc()
	metrics.AttachmentBytesTotal.Add(float64(len(data)))
	return domatt.Stored(subsidyID, name, original, len(data))
}

func (p *Persister) fail(category subsidy.Category, original string, reason error) domatt.Entry {
	metrics.AttachmentsTotal.WithLabelValues(string(category), "failed").Inc()
	return domatt.Failure(original, reason)
}

func displayName(category subsidy.Category, index int, item subsidy.Attachment) string {
	if item.Name != "" {
		return item.Name
	}
	return domatt.FallbackName(category, index)
}

// Decode decodes standard base64. Padding is optional and whitespace anywhere is ignored.
func Decode(s string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(compact, "="))
}
