// Package convert renders office documents, PDFs and web formats as markdown text.
package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

// ErrUnsupported is returned for formats with no converter, such as legacy
// binary Office files.
var ErrUnsupported = errors.New("unsupported format")

// maxEntryBytes bounds a single decompressed archive member.
const maxEntryBytes = 64 << 20

// maxZipDepth bounds nested archives.
const maxZipDepth = 2

// Converter exposes the package functions as a value.
type Converter struct{}

// Markdown converts data based on the extension of name.
func (Converter) Markdown(name string, data []byte) (string, error) { return Markdown(name, data) }

// PDFPages returns the plain text of each PDF page.
func (Converter) PDFPages(data []byte) ([]string, error) { return PDFPages(data) }

// Markdown converts data based on the extension of name.
func Markdown(name string, data []byte) (string, error) {
	return markdown(name, data, 0)
}

func markdown(name string, data []byte, depth int) (text string, err error) {
	// Third-party parsers panic on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("convert %s: panic: %v", name, r)
		}
	}()

	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")); ext {
	case "pdf":
		return pdfText(data)
	case "docx":
		return docx(data)
	case "pptx":
		return pptx(data)
	case "xlsx":
		return xlsx(data)
	case "html", "htm":
		return htmlText(data)
	case "csv":
		return csvTable(data)
	case "txt", "md", "xml":
		return decodeText(data), nil
	case "rtf":
		return rtfText(data), nil
	case "zip":
		return zipText(data, depth)
	case "doc", "xls", "ppt":
		return "", fmt.Errorf("%w: legacy .%s", ErrUnsupported, ext)
	default:
		return "", fmt.Errorf("%w: .%s", ErrUnsupported, ext)
	}
}

// decodeText returns data as UTF-8. Files that are not valid UTF-8 are
// read as Shift_JIS, the usual encoding of Japanese government documents.
func decodeText(data []byte) string {
	data = trimBOM(data)
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := japanese.ShiftJIS.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(out)
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
