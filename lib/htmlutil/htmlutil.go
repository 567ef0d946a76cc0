package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText flattens a node's text content, recursing through the
// nested spans and links HKJC wraps cell values in.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func selectionText(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, node := range sel.Nodes {
		buffer.WriteString(GetText(node))
	}
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace (including the non-breaking
// spaces HKJC pads cells with) and strips non-printable runes.
func CleanText(s string) string {
	var out strings.Builder
	for _, c := range s {
		if c == ' ' {
			out.WriteRune(' ')
			continue
		}
		if unicode.IsPrint(c) {
			out.WriteRune(c)
		}
	}
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(out.String(), " "))
}

// TableCells flattens a <table> selection into rows of trimmed cell
// text. both <td> and <th> count as cells; rows with no non-empty cell
// are skipped.
func TableCells(table *goquery.Selection) [][]string {
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		nonEmpty := false
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			text := CleanText(selectionText(cell))
			if text != "" {
				nonEmpty = true
			}
			cells = append(cells, text)
		})
		if len(cells) > 0 && nonEmpty {
			rows = append(rows, cells)
		}
	})
	return rows
}

// FlattenText returns the whitespace-normalized text content of a
// selection, used for table signature matching.
func FlattenText(sel *goquery.Selection) string {
	return CleanText(selectionText(sel))
}
