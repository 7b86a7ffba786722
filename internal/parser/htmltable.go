package parser

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLTableReader reads the first <table> of pasted rich text, as produced by
// copying a range from a spreadsheet or a web page. The first row is the header.
// Row numbers stand in for line numbers.
type HTMLTableReader struct{}

func NewHTMLTableReader() *HTMLTableReader {
	return &HTMLTableReader{}
}

func (h *HTMLTableReader) Name() string {
	return "html_table"
}

func (h *HTMLTableReader) CanRead(content []byte) bool {
	return bytes.Contains(bytes.ToLower(content), []byte("<table"))
}

func (h *HTMLTableReader) Read(name string, content []byte) (*RawTable, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing %s markup: %w", name, err)
	}

	tbl := findElement(doc, atom.Table)
	if tbl == nil {
		return nil, &EmptyTableError{Table: name}
	}

	table := &RawTable{Name: name, Format: h.Name()}
	rowNum := 0
	for _, tr := range collectRows(tbl) {
		rowNum++
		var cells []string
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
				cells = append(cells, cellText(c))
			}
		}
		if isBlankRecord(cells) {
			continue
		}
		if table.Headers == nil {
			table.Headers = make([]string, len(cells))
			for i, c := range cells {
				table.Headers[i] = NormalizeHeader(c)
			}
			continue
		}
		table.Rows = append(table.Rows, RawRow{Line: rowNum, Cells: trimTrailingEmpty(cells, len(table.Headers))})
	}

	if table.Headers == nil {
		return nil, &EmptyTableError{Table: name}
	}
	return table, nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// collectRows returns the <tr> elements of tbl in document order, looking
// through thead/tbody/tfoot but not into nested tables.
func collectRows(tbl *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Tr:
				rows = append(rows, c)
			case atom.Thead, atom.Tbody, atom.Tfoot:
				walk(c)
			}
		}
	}
	walk(tbl)
	return rows
}

func cellText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Br {
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
