package convert

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
)

func openZip(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return zr, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(data) > maxEntryBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", f.Name, maxEntryBytes)
	}
	return data, nil
}

func findEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// paragraph is one block of text with an optional heading level.
type paragraph struct {
	level int
	text  string
}

// wordParagraphs walks WordprocessingML or DrawingML: <p> is a paragraph,
// <t> carries text, <tab> and <br> are whitespace, <pStyle val="HeadingN">
// marks a heading.
func wordParagraphs(doc []byte) ([]paragraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	var (
		out    []paragraph
		cur    strings.Builder
		level  int
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				cur.Reset()
				level = 0
			case "t":
				inText = true
			case "tab":
				cur.WriteString("\t")
			case "br", "cr":
				cur.WriteString("\n")
			case "pStyle":
				level = headingLevel(attr(t, "val"))
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(cur.String()); text != "" {
					out = append(out, paragraph{level: level, text: text})
				}
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return out, nil
}

func attr(e xml.StartElement, local string) string {
	for _, a := range e.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// headingLevel maps style ids like "Heading1", "heading 2" or "Title".
func headingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return 1
	}
	if rest, ok := strings.CutPrefix(s, "heading"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 6 {
			return n
		}
	}
	return 0
}

func renderParagraphs(ps []paragraph) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		if p.level > 0 {
			parts = append(parts, strings.Repeat("#", p.level)+" "+p.text)
			continue
		}
		parts = append(parts, p.text)
	}
	return strings.Join(parts, "\n\n")
}

func docx(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}
	f := findEntry(zr, "word/document.xml")
	if f == nil {
		return "", errors.New("docx: word/document.xml not found")
	}
	doc, err := readEntry(f)
	if err != nil {
		return "", err
	}
	ps, err := wordParagraphs(doc)
	if err != nil {
		return "", fmt.Errorf("docx: %w", err)
	}
	return renderParagraphs(ps), nil
}

func pptx(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}

	type slide struct {
		n int
		f *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		rest, ok := strings.CutPrefix(f.Name, "ppt/slides/slide")
		if !ok {
			continue
		}
		num, ok := strings.CutSuffix(rest, ".xml")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		slides = append(slides, slide{n: n, f: f})
	}
	if len(slides) == 0 {
		return "", errors.New("pptx: no slides found")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var b strings.Builder
	for i, s := range slides {
		doc, err := readEntry(s.f)
		if err != nil {
			return "", err
		}
		ps, err := wordParagraphs(doc)
		if err != nil {
			return "", fmt.Errorf("pptx slide %d: %w", s.n, err)
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## Slide %d", i+1)
		if body := renderParagraphs(ps); body != "" {
			b.WriteString("\n\n")
			b.WriteString(body)
		}
	}
	return b.String(), nil
}
