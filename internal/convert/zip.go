package convert

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

// zipText renders each convertible member under its own heading. Members
// that cannot be converted are listed with the reason.
func zipText(data []byte, depth int) (string, error) {
	if depth >= maxZipDepth {
		return "", fmt.Errorf("%w: nested archive deeper than %d", ErrUnsupported, maxZipDepth)
	}
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}

	var sections []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := entryName(f.Name)
		if strings.HasPrefix(path.Base(name), ".") || strings.HasPrefix(name, "__MACOSX/") {
			continue
		}

		body, err := readEntry(f)
		if err == nil {
			var text string
			text, err = markdown(name, body, depth+1)
			if err == nil && strings.TrimSpace(text) != "" {
				sections = append(sections, "## "+name+"\n\n"+strings.TrimSpace(text))
				continue
			}
		}
		if errors.Is(err, ErrUnsupported) || err == nil {
			sections = append(sections, "## "+name)
			continue
		}
		sections = append(sections, fmt.Sprintf("## %s\n\n(conversion failed: %v)", name, err))
	}
	return strings.Join(sections, "\n\n"), nil
}

// entryName decodes archive member names written by Japanese Windows tools,
// which store Shift_JIS names.
func entryName(name string) string {
	if utf8.ValidString(name) {
		return name
	}
	decoded, err := japanese.ShiftJIS.NewDecoder().String(name)
	if err != nil {
		return name
	}
	return decoded
}
