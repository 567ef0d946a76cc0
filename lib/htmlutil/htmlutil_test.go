package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		in     string
		expect string
	}{
		{"  Happy Horse  ", "Happy Horse"},
		{"馬號\n\t檔位", "馬號 檔位"},
		{"", ""},
		{"4.5", "4.5"},
	}
	for _, c := range cases {
		require.Equal(t, c.expect, CleanText(c.in))
	}
}

func TestTableCells(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<table>
			<tr><th>馬號</th><th>馬名</th></tr>
			<tr><td>1</td><td>Happy Horse</td></tr>
			<tr><td></td><td></td></tr>
			<tr><td>2</td><td>Lucky Star</td></tr>
		</table>`))
	require.NoError(t, err)

	got := TableCells(doc.Find("table"))
	expect := [][]string{
		{"馬號", "馬名"},
		{"1", "Happy Horse"},
		{"2", "Lucky Star"},
	}
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Fatalf("unexpected cells (-want +got):\n%s", diff)
	}
}

func TestTableCellsFlattensNestedMarkup(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<table>
			<tr>
				<td><a href="#"><span>爆冷</span> <span>(E100)</span></a></td>
				<td><div><b>4.5</b></div></td>
			</tr>
		</table>`))
	require.NoError(t, err)

	got := TableCells(doc.Find("table"))
	expect := [][]string{{"爆冷 (E100)", "4.5"}}
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Fatalf("unexpected cells (-want +got):\n%s", diff)
	}
}
