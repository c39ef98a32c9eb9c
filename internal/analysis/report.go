package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Report is a markdown-friendly analysis of a tabular dataset.
type Report struct {
	Name      string
	Rows      int
	Processed int
	Cols      []ColumnSummary
	Samples   [][]string
	Warnings  []string
	Groups    []GroupResult
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|categorical|text|unknown
	NonNull int
	Missing int
	// Negative counts numeric cells below zero (survey sentinel codes).
	Negative int
	Unique   int
	// Numeric stats over non-negative values
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Categorical top values
	TopValues []CategoryCount
}

// FourPoint reports whether the column's observed maximum marks it as a
// 4-point scale that the inferred scale mode reverses.
func (c ColumnSummary) FourPoint() bool { return c.Kind == "numeric" && c.Max == 4 }

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// AnalyzeCSV reads a delimited file and profiles its columns.
func AnalyzeCSV(path string, opt Options) (*Report, error) {
	t, err := ReadCSV(path, opt)
	if err != nil {
		return nil, err
	}
	return Analyze(t, opt), nil
}

// Analyze profiles an in-memory table. Negative numbers are counted separately
// and left out of the numeric statistics, matching how survey sentinels are treated.
func Analyze(t *Table, opt Options) *Report {
	rep := &Report{Name: t.Name, Rows: t.Total, Processed: len(t.Rows)}
	ncol := len(t.Header)
	if ncol == 0 {
		return rep
	}
	type colAcc struct {
		nonNil, miss, neg int
		n                 int
		mean, m2          float64
		min, max          float64
		numCnt, txtCnt    int
		cats              map[string]int
	}
	cols := make([]*colAcc, ncol)
	for i := range cols {
		cols[i] = &colAcc{min: math.Inf(1), max: math.Inf(-1), cats: map[string]int{}}
	}
	var gbIdx []int
	for _, name := range opt.GroupBy {
		if i := t.Index(name); i >= 0 {
			gbIdx = append(gbIdx, i)
		}
	}
	type gAcc struct {
		size int
		sum  map[int]float64
		cnt  map[int]int
		min  map[int]float64
		max  map[int]float64
	}
	groups := map[string]*gAcc{}

	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 0
	}
	for _, row := range t.Rows {
		if len(rep.Samples) < sampleRows {
			rep.Samples = append(rep.Samples, row)
		}
		var ga *gAcc
		if len(gbIdx) > 0 {
			parts := make([]string, 0, len(gbIdx))
			for _, idx := range gbIdx {
				parts = append(parts, fmt.Sprintf("%s=%s", t.Header[idx], safeVal(strings.TrimSpace(row[idx]))))
			}
			key := strings.Join(parts, " | ")
			ga = groups[key]
			if ga == nil {
				ga = &gAcc{sum: map[int]float64{}, cnt: map[int]int{}, min: map[int]float64{}, max: map[int]float64{}}
				groups[key] = ga
			}
			ga.size++
		}
		for j := 0; j < ncol; j++ {
			v := strings.TrimSpace(row[j])
			c := cols[j]
			if v == "" {
				c.miss++
				continue
			}
			c.nonNil++
			x, ok := ParseNumeric(v, opt)
			if !ok {
				c.txtCnt++
				if len(c.cats) <= 10000 && len(v) <= 64 {
					c.cats[v]++
				}
				continue
			}
			c.numCnt++
			if x < 0 {
				c.neg++
				continue
			}
			// Welford update
			c.n++
			if x < c.min {
				c.min = x
			}
			if x > c.max {
				c.max = x
			}
			delta := x - c.mean
			c.mean += delta / float64(c.n)
			c.m2 += delta * (x - c.mean)
			if ga != nil {
				ga.sum[j] += x
				ga.cnt[j]++
				if m, ok := ga.min[j]; !ok || x < m {
					ga.min[j] = x
				}
				if m, ok := ga.max[j]; !ok || x > m {
					ga.max[j] = x
				}
			}
		}
	}

	var numCols []int
	for idx, c := range cols {
		s := ColumnSummary{Name: t.Header[idx], NonNull: c.nonNil, Missing: c.miss, Negative: c.neg}
		switch {
		case c.numCnt > 0 && c.numCnt >= c.txtCnt:
			s.Kind = "numeric"
			if c.n > 0 {
				s.Min, s.Max, s.Mean = c.min, c.max, c.mean
			}
			if c.n > 1 {
				s.Std = math.Sqrt(c.m2 / float64(c.n-1))
			}
			numCols = append(numCols, idx)
		case len(c.cats) > 0:
			s.Kind = "categorical"
			tops := make([]CategoryCount, 0, len(c.cats))
			for k, v := range c.cats {
				tops = append(tops, CategoryCount{Value: k, Count: v})
			}
			sort.Slice(tops, func(i, j int) bool {
				if tops[i].Count == tops[j].Count {
					return tops[i].Value < tops[j].Value
				}
				return tops[i].Count > tops[j].Count
			})
			if len(tops) > 8 {
				tops = tops[:8]
			}
			s.TopValues = tops
			s.Unique = len(c.cats)
		case c.txtCnt > 0:
			s.Kind = "text"
		default:
			s.Kind = "unknown"
		}
		rep.Cols = append(rep.Cols, s)
	}
	if t.Truncated() {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", rep.Processed, rep.Rows))
	}

	if len(groups) > 0 {
		out := make([]GroupResult, 0, len(groups))
		for k, ga := range groups {
			gr := GroupResult{Key: k, Size: ga.size, Metrics: map[string]NumSummary{}}
			for _, idx := range numCols {
				if ga.cnt[idx] == 0 {
					continue
				}
				gr.Metrics[t.Header[idx]] = NumSummary{
					Count: ga.cnt[idx],
					Min:   ga.min[idx],
					Max:   ga.max[idx],
					Mean:  ga.sum[idx] / float64(ga.cnt[idx]),
				}
			}
			out = append(out, gr)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Size == out[j].Size {
				return out[i].Key < out[j].Key
			}
			return out[i].Size > out[j].Size
		})
		if len(out) > 20 {
			out = out[:20]
		}
		rep.Groups = out
	}
	return rep
}

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Rows > 0 {
		if r.Processed < r.Rows {
			b.WriteString(fmt.Sprintf("Rows: ~%d (processed %d)\n", r.Rows, r.Processed))
		} else {
			b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
		}
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.Negative > 0 {
				b.WriteString(fmt.Sprintf("; %d negative codes", c.Negative))
			}
			if c.FourPoint() {
				b.WriteString("; 4-point scale")
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max))
			}
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
