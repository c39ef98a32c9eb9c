package analysis

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var csvRows = []string{
	"COUNTRY_ALPHA;S002VS;X003R2;B001;B008;Note",
	"USA;5;1;1;2;first",
	"USA;5;2;4;-1;second",
	"USA;6;1;3;1;third",
	"CAN;5;1;-2;3;fourth",
	"CAN;5;3;2;4;fifth",
	"CAN;6;1;4;2;sixth",
}

func writeFixture(t *testing.T, name string, lines []string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func TestReadCSVSniffsSemicolon(t *testing.T) {
	p := writeFixture(t, "wvs.csv", csvRows)
	tbl, err := ReadCSV(p, DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(tbl.Header) != 6 || tbl.Header[3] != "B001" {
		t.Fatalf("header = %#v", tbl.Header)
	}
	if len(tbl.Rows) != 6 || tbl.Total != 6 {
		t.Fatalf("rows = %d total = %d", len(tbl.Rows), tbl.Total)
	}
	if got := tbl.Index("b008"); got != 4 {
		t.Fatalf("Index(b008) = %d, want 4", got)
	}
	if _, err := tbl.MustIndex("X999"); err == nil {
		t.Fatalf("expected missing column error")
	}
}

func TestReadCSVMaxRows(t *testing.T) {
	p := writeFixture(t, "wvs.csv", csvRows)
	opt := DefaultOptions()
	opt.MaxRows = 4
	tbl, err := ReadCSV(p, opt)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(tbl.Rows) != 4 || tbl.Total != 6 || !tbl.Truncated() {
		t.Fatalf("rows=%d total=%d truncated=%v", len(tbl.Rows), tbl.Total, tbl.Truncated())
	}
}

func TestReadCSVEmpty(t *testing.T) {
	p := writeFixture(t, "empty.csv", nil)
	tbl, err := ReadCSV(p, DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(tbl.Header) != 0 || len(tbl.Rows) != 0 {
		t.Fatalf("expected empty table, got %#v", tbl)
	}
}

func TestSniffDelimiter(t *testing.T) {
	cases := []struct {
		in   string
		want rune
	}{
		{"a,b,c\n1,2,3", ','},
		{"region;date;value;trend\n", ';'},
		{"a\tb\tc", '\t'},
		{"single", ','},
	}
	for _, c := range cases {
		if got := SniffDelimiter(c.in); got != c.want {
			t.Errorf("SniffDelimiter(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in   string
		opt  Options
		want float64
		ok   bool
	}{
		{"-1", Options{}, -1, true},
		{"3", Options{}, 3, true},
		{"12.5%", Options{}, 12.5, true},
		{"1.000,5", Options{}, 1000.5, true},
		{"0,5", Options{DecimalSeparator: ','}, 0.5, true},
		{"don't know", Options{}, 0, false},
		{"", Options{}, 0, false},
		{"NaN", Options{}, 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumeric(c.in, c.opt)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ParseNumeric(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.csv")
	header := []string{"Country", "Wave", "B001"}
	rows := [][]string{{"CAN", "5", "2.5"}, {"USA", "5", ""}}
	if err := WriteCSV(p, header, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	tbl, err := ReadCSV(p, DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if !equalStrings(tbl.Header, header) {
		t.Fatalf("header = %#v", tbl.Header)
	}
	for i := range rows {
		if !equalStrings(tbl.Rows[i], rows[i]) {
			t.Fatalf("row %d = %#v, want %#v", i, tbl.Rows[i], rows[i])
		}
	}
}

func TestAnalyzeMarkdown(t *testing.T) {
	p := writeFixture(t, "wvs.csv", csvRows)
	opt := DefaultOptions()
	opt.GroupBy = []string{"COUNTRY_ALPHA"}
	opt.SampleRows = 2
	rep, err := AnalyzeCSV(p, opt)
	if err != nil {
		t.Fatalf("AnalyzeCSV: %v", err)
	}
	var b001, note ColumnSummary
	for _, c := range rep.Cols {
		switch c.Name {
		case "B001":
			b001 = c
		case "Note":
			note = c
		}
	}
	if b001.Kind != "numeric" || b001.Max != 4 || b001.Min != 1 || b001.Negative != 1 {
		t.Fatalf("B001 summary = %#v", b001)
	}
	if !b001.FourPoint() {
		t.Fatalf("B001 should be flagged as 4-point")
	}
	if note.Kind != "categorical" || note.Unique != 6 {
		t.Fatalf("Note summary = %#v", note)
	}
	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: wvs.csv",
		"Rows: 6",
		"- B001: numeric",
		"1 negative codes",
		"4-point scale",
		"[GROUP-BY SUMMARY]",
		"COUNTRY_ALPHA=CAN (n=3)",
		"[HEAD AND SAMPLE ROWS]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "vars.xlsx")
	err := WriteXLSX(p, []Sheet{
		{Name: "Hoja1", Header: []string{"Variable", "Title"}, Rows: [][]string{{"B001", "Give income for environment"}, {"B008", "Environment vs growth"}}},
		{Name: "Means", Header: []string{"Country", "Wave", "B001"}, Rows: [][]string{{"USA", "5", "2.5"}}},
	})
	if err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	byName, err := ReadXLSX(p, "hoja1", 0)
	if err != nil {
		t.Fatalf("ReadXLSX name: %v", err)
	}
	if len(byName.Rows) != 2 || byName.Rows[1][0] != "B008" {
		t.Fatalf("rows = %#v", byName.Rows)
	}
	byIndex, err := ReadXLSX(p, "", 2)
	if err != nil {
		t.Fatalf("ReadXLSX index: %v", err)
	}
	if byIndex.Header[2] != "B001" || byIndex.Rows[0][2] != "2.5" {
		t.Fatalf("sheet 2 = %#v %#v", byIndex.Header, byIndex.Rows)
	}
	if _, err := ReadXLSX(p, "Missing", 0); err == nil || !strings.Contains(err.Error(), "Available sheets: Hoja1, Means") {
		t.Fatalf("expected sheet listing error, got %v", err)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
