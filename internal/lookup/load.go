package lookup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
)

// DefaultQuestionSheet is the sheet name used by the survey's variable workbook.
const DefaultQuestionSheet = "Hoja1"

// LoadCatalog reads a YAML catalog file with countries, questions and waves sections.
// Sections missing from the file are taken from the embedded defaults.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := parseCatalog(b)
	if err != nil {
		return nil, err
	}
	def := Default()
	if c.Countries.Len() == 0 {
		c.Countries = def.Countries
	}
	if c.Questions.Len() == 0 {
		c.Questions = def.Questions
	}
	if len(c.Waves.entries) == 0 {
		c.Waves = def.Waves
	}
	return c, nil
}

// LoadQuestions reads a question-label mapping from YAML, CSV or XLSX.
// Tabular inputs use the Variable/Title columns (or code/label), falling back
// to the first two columns.
func LoadQuestions(path string) (*Questions, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		c, err := LoadCatalog(path)
		if err != nil {
			return nil, err
		}
		return c.Questions, nil
	}
	t, err := readTable(path, DefaultQuestionSheet)
	if err != nil {
		return nil, err
	}
	ci, li := pickColumns(t, []string{"variable", "code", "question"}, []string{"title", "label"})
	if ci < 0 {
		return nil, fmt.Errorf("question mapping %s: need at least two columns", t.Name)
	}
	var out []Question
	for _, row := range t.Rows {
		out = append(out, Question{Code: row[ci], Label: row[li]})
	}
	return NewQuestions(out), nil
}

// LoadCountries reads a country mapping from YAML or a tabular file with
// country_3/country_name (or code/name) columns.
func LoadCountries(path string) (*Countries, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		c, err := LoadCatalog(path)
		if err != nil {
			return nil, err
		}
		return c.Countries, nil
	}
	t, err := readTable(path, "")
	if err != nil {
		return nil, err
	}
	ci, ni := pickColumns(t, []string{"country_3", "iso3", "code"}, []string{"country_name", "name", "country"})
	if ci < 0 {
		return nil, fmt.Errorf("country mapping %s: need at least two columns", t.Name)
	}
	var out []Country
	for _, row := range t.Rows {
		out = append(out, Country{Code: row[ci], Name: row[ni]})
	}
	return NewCountries(out), nil
}

func readTable(path, sheet string) (*analysis.Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		t, err := analysis.ReadXLSX(path, sheet, 1)
		if err != nil && sheet != "" {
			// the sheet name is only a convention; fall back to the first sheet
			return analysis.ReadXLSX(path, "", 1)
		}
		return t, err
	}
	return analysis.ReadCSV(path, analysis.DefaultOptions())
}

func pickColumns(t *analysis.Table, keyNames, valNames []string) (int, int) {
	if len(t.Header) < 2 {
		return -1, -1
	}
	find := func(names []string) int {
		for _, n := range names {
			if i := t.Index(n); i >= 0 {
				return i
			}
		}
		return -1
	}
	ki, vi := find(keyNames), find(valNames)
	if ki < 0 || vi < 0 || ki == vi {
		return 0, 1
	}
	return ki, vi
}
