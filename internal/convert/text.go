package convert

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func csvTable(data []byte) (string, error) {
	r := csv.NewReader(strings.NewReader(decodeText(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return markdownTable(rows), nil
}

// rtfSkipped are destinations whose content is not document text.
var rtfSkipped = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "object": true, "header": true, "footer": true,
	"listtable": true, "listoverridetable": true, "themedata": true,
	"datastore": true, "latentstyles": true, "rsidtbl": true, "generator": true,
}

// rtfText strips RTF markup. \'hh escapes are collected and decoded
// together so multi-byte Shift_JIS sequences survive.
func rtfText(data []byte) string {
	var (
		out     strings.Builder
		pending []byte
		depth   int
		skipAt  = -1 // group depth being skipped, -1 when not skipping
		ucSkip  int
	)
	flush := func() {
		if len(pending) > 0 {
			out.WriteString(decodeText(pending))
			pending = pending[:0]
		}
	}
	emit := func(s string) {
		if skipAt >= 0 {
			return
		}
		flush()
		out.WriteString(s)
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch c {
		case '{':
			depth++
			if i+2 < len(data) && data[i+1] == '\\' && data[i+2] == '*' && skipAt < 0 {
				skipAt = depth
			}
			continue
		case '}':
			if skipAt == depth {
				skipAt = -1
			}
			depth--
			continue
		case '\r', '\n':
			continue
		case '\\':
			// handled below
		default:
			if ucSkip > 0 {
				ucSkip--
				continue
			}
			if c >= 0x80 {
				if skipAt < 0 {
					pending = append(pending, c)
				}
				continue
			}
			emit(string(rune(c)))
			continue
		}

		if i+1 >= len(data) {
			break
		}
		next := data[i+1]
		switch {
		case next == '\'' && i+3 < len(data):
			b, err := strconv.ParseUint(string(data[i+2:i+4]), 16, 8)
			i += 3
			if err != nil {
				continue
			}
			if ucSkip > 0 {
				ucSkip--
				continue
			}
			if skipAt < 0 {
				pending = append(pending, byte(b))
			}
		case next == '\\' || next == '{' || next == '}':
			emit(string(next))
			i++
		case next == '~':
			emit(" ")
			i++
		case isLetter(next):
			j := i + 1
			for j < len(data) && isLetter(data[j]) {
				j++
			}
			word := string(data[i+1 : j])
			k := j
			if k < len(data) && (data[k] == '-' || isDigit(data[k])) {
				k++
				for k < len(data) && isDigit(data[k]) {
					k++
				}
			}
			param := string(data[j:k])
			if k < len(data) && data[k] == ' ' {
				k++
			}
			i = k - 1

			if rtfSkipped[word] && skipAt < 0 {
				skipAt = depth
				continue
			}
			switch word {
			case "par", "line", "sect", "page":
				emit("\n")
			case "tab", "cell":
				emit("\t")
			case "row":
				emit("\n")
			case "u":
				if n, err := strconv.Atoi(param); err == nil {
					if n < 0 {
						n += 65536
					}
					emit(string(rune(n)))
					ucSkip = 1
				}
			}
		default:
			// Other control symbols such as \- or \_ carry no text.
			i++
		}
	}
	flush()
	return strings.TrimSpace(collapseBlankLines(out.String()))
}

func collapseBlankLines(s string) string {
	return blankLines.ReplaceAllString(s, "\n\n")
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
