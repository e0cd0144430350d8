package content

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain"
	domcontent "github.com/kailas-cloud/jgrants-mcp/internal/domain/content"
	"github.com/kailas-cloud/jgrants-mcp/internal/domain/subsidy"
	"github.com/kailas-cloud/jgrants-mcp/internal/logger"
	"github.com/kailas-cloud/jgrants-mcp/internal/metrics"
)

// MethodRaw labels results that fell through to base64.
const MethodRaw = "raw"

var errBlank = errors.New("no text extracted")

// convertible lists extensions handed to the document converter.
var convertible = map[string]bool{
	"pdf": true, "docx": true, "doc": true, "xlsx": true, "xls": true,
	"pptx": true, "ppt": true, "html": true, "htm": true, "xml": true,
	"rtf": true, "txt": true, "csv": true, "md": true, "zip": true,
}

// mimeTypes covers the formats jGrants attachments come in.
var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".zip":  "application/zip",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".md":   "text/markdown",
	".html": "text/html",
	".htm":  "text/html",
	".xml":  "text/xml",
	".rtf":  "application/rtf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// MIMEType guesses a file's media type from its extension.
func MIMEType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// file is what every strategy sees.
type file struct {
	name string
	ext  string
	mime string
	data []byte
}

// strategy tries to produce text. run is only called when applies is true.
type strategy struct {
	name    string
	applies func(f file) bool
	run     func(f file) (text, method string, err error)
}

// Service reads persisted attachments back as text or base64.
type Service struct {
	files     Reader
	converter Converter
	chain     []strategy
}

// New creates a content service.
func New(files Reader, converter Converter) *Service {
	s := &Service{files: files, converter: converter}
	s.chain = []strategy{
		{
			name:    "convert",
			applies: func(f file) bool { return convertible[f.ext] },
			run:     s.convert,
		},
		{
			name:    "pdf_pages",
			applies: func(f file) bool { return f.ext == "pdf" },
			run:     s.pdfPages,
		},
		{
			name:    "text_file",
			applies: func(f file) bool { return strings.HasPrefix(f.mime, "text/") },
			run:     readText,
		},
	}
	return s
}

// Get returns the stored file name of subsidy id. In markdown mode the
// strategies run in order and the first non-blank text wins; otherwise,
// or when all fail, the raw bytes are returned base64 encoded.
func (s *Service) Get(ctx context.Context, id, name string, mode domcontent.Mode) (domcontent.Result, error) {
	if mode == "" {
		mode = domcontent.ModeMarkdown
	}
	if !mode.IsValid() {
		return domcontent.Result{}, fmt.Errorf("%w: return_format must be markdown or base64, got %q",
			domain.ErrInvalidArgument, mode)
	}
	id, err := subsidy.ValidateID(id)
	if err != nil {
		return domcontent.Result{}, err
	}
	if err := subsidy.ValidateSegment(name); err != nil {
		return domcontent.Result{}, fmt.Errorf("%w: filename %v", domain.ErrInvalidArgument, err)
	}

	data, err := s.files.Read(id, name)
	if err != nil {
		return domcontent.Result{}, err
	}

	f := file{
		name: name,
		ext:  strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
		mime: MIMEType(name),
		data: data,
	}

	if mode == domcontent.ModeMarkdown {
		log := logger.FromContext(ctx)
		for _, st := range s.chain {
			if !st.applies(f) {
				continue
			}
			text, method, err := st.run(f)
			if err == nil && strings.TrimSpace(text) == "" {
				err = errBlank
			}
			if err != nil {
				log.Debug("extraction step failed",
					zap.String("step", st.name),
					zap.String("filename", name),
					zap.Error(err),
				)
				continue
			}
			metrics.ExtractionsTotal.WithLabelValues(method).Inc()
			return domcontent.Text(name, f.mime, len(data), text, method), nil
		}
	}

	metrics.ExtractionsTotal.WithLabelValues(MethodRaw).Inc()
	return domcontent.Raw(name, f.mime, data), nil
}

func (s *Service) convert(f file) (string, string, error) {
	text, err := s.converter.Markdown(f.name, f.data)
	return text, "markdown_" + f.ext, err
}

func (s *Service) pdfPages(f file) (string, string, error) {
	pages, err := s.converter.PDFPages(f.data)
	if err != nil {
		return "", "", err
	}
	parts := make([]string, 0, len(pages))
	for i, p := range pages {
		if strings.TrimSpace(p) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("## Page %d\n\n%s", i+1, strings.TrimSpace(p)))
	}
	return strings.Join(parts, "\n\n---\n\n"), "pdf_pages", nil
}

func readText(f file) (string, string, error) {
	if !utf8.Valid(f.data) {
		return "", "", errors.New("not valid UTF-8")
	}
	return string(f.data), "text_file", nil
}
