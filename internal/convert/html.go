package convert

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

func htmlText(data []byte) (string, error) {
	doc, err := html.Parse(strings.NewReader(decodeText(data)))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b bytes.Buffer
	w := &htmlWriter{out: &b}
	w.walk(doc)
	return strings.TrimSpace(blankLines.ReplaceAllString(b.String(), "\n\n")), nil
}

type htmlWriter struct {
	out   *bytes.Buffer
	lists []string // "ul" or "ol" per nesting level
	items []int
}

func (w *htmlWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		text := collapseSpace(n.Data)
		if w.afterSpace() {
			text = strings.TrimLeft(text, " ")
		}
		w.out.WriteString(text)
		return
	case html.ElementNode:
		// handled below
	default:
		w.children(n)
		return
	}

	switch n.Data {
	case "script", "style", "head", "noscript", "template":
		return
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		w.block()
		w.out.WriteString(strings.Repeat("#", level) + " ")
		w.out.WriteString(strings.TrimSpace(textOf(n)))
		w.block()
	case "p", "div", "section", "article", "header", "footer", "main", "blockquote":
		w.block()
		w.children(n)
		w.block()
	case "br":
		w.out.WriteString("\n")
	case "hr":
		w.block()
		w.out.WriteString("---")
		w.block()
	case "ul", "ol":
		nested := len(w.lists) > 0
		if nested {
			w.line()
		} else {
			w.block()
		}
		w.lists = append(w.lists, n.Data)
		w.items = append(w.items, 0)
		w.children(n)
		w.lists = w.lists[:len(w.lists)-1]
		w.items = w.items[:len(w.items)-1]
		if nested {
			w.line()
		} else {
			w.block()
		}
	case "li":
		depth := len(w.lists)
		indent := strings.Repeat("  ", max(depth-1, 0))
		marker := "- "
		if depth > 0 && w.lists[depth-1] == "ol" {
			w.items[depth-1]++
			marker = fmt.Sprintf("%d. ", w.items[depth-1])
		}
		w.line()
		w.out.WriteString(indent + marker)
		w.children(n)
		w.line()
	case "a":
		text := strings.TrimSpace(textOf(n))
		href := attrOf(n, "href")
		switch {
		case href == "" || strings.HasPrefix(href, "javascript:"):
			w.out.WriteString(text)
		case text == "":
			w.out.WriteString("<" + href + ">")
		default:
			w.out.WriteString("[" + text + "](" + href + ")")
		}
	case "strong", "b":
		if text := strings.TrimSpace(textOf(n)); text != "" {
			w.out.WriteString("**" + text + "**")
		}
	case "table":
		w.block()
		w.out.WriteString(markdownTable(tableRows(n)))
		w.block()
	default:
		w.children(n)
	}
}

func (w *htmlWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *htmlWriter) afterSpace() bool {
	b := w.out.Bytes()
	return len(b) == 0 || b[len(b)-1] == '\n' || b[len(b)-1] == ' '
}

func (w *htmlWriter) trimTrailingSpace() {
	w.out.Truncate(len(bytes.TrimRight(w.out.Bytes(), " ")))
}

// block ensures the output ends with a blank line.
func (w *htmlWriter) block() {
	w.trimTrailingSpace()
	b := w.out.Bytes()
	switch {
	case len(b) == 0:
	case bytes.HasSuffix(b, []byte("\n\n")):
	case bytes.HasSuffix(b, []byte("\n")):
		w.out.WriteString("\n")
	default:
		w.out.WriteString("\n\n")
	}
}

// line ensures the output ends with a newline.
func (w *htmlWriter) line() {
	w.trimTrailingSpace()
	b := w.out.Bytes()
	if len(b) > 0 && !bytes.HasSuffix(b, []byte("\n")) {
		w.out.WriteString("\n")
	}
}

func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					row = append(row, strings.TrimSpace(textOf(c)))
				}
			}
			rows = append(rows, row)
			return
		}
		if n.Type == html.ElementNode && n.Data == "table" && n != table {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(table)
	return rows
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "br":
				b.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return collapseSpace(b.String())
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// collapseSpace folds runs of whitespace to one space, keeping a single
// leading or trailing space so inline text stays separated.
func collapseSpace(s string) string {
	if strings.TrimSpace(s) == "" {
		if s != "" {
			return " "
		}
		return ""
	}
	fields := strings.Fields(s)
	out := strings.Join(fields, " ")
	if strings.IndexFunc(s[:1], isSpace) == 0 {
		out = " " + out
	}
	if strings.IndexFunc(s[len(s)-1:], isSpace) == 0 {
		out += " "
	}
	return out
}

func isSpace(r rune) bool { return r == ' ' || r == '\n' || r == '\t' || r == '\r' || r == '\f' }
