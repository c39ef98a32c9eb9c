package workspace

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/KaramelBytes/climatelens-cli/internal/dashboard"
	"github.com/KaramelBytes/climatelens-cli/internal/indicators"
	"github.com/KaramelBytes/climatelens-cli/internal/lookup"
	"github.com/KaramelBytes/climatelens-cli/internal/pricing"
	"github.com/KaramelBytes/climatelens-cli/internal/survey"
)

// Catalog returns the embedded lookup catalog with any registered country or
// question mapping swapped in.
func (w *Workspace) Catalog() (*lookup.Catalog, error) {
	cat := lookup.Default()
	var countries *lookup.Countries
	var questions *lookup.Questions
	if d, ok := w.Dataset(KindCountries); ok {
		c, err := lookup.LoadCountries(d.Path)
		if err != nil {
			return nil, fmt.Errorf("load countries %s: %w", d.Name, err)
		}
		countries = c
	}
	if d, ok := w.Dataset(KindQuestions); ok {
		q, err := lookup.LoadQuestions(d.Path)
		if err != nil {
			return nil, fmt.Errorf("load questions %s: %w", d.Name, err)
		}
		questions = q
	}
	return cat.With(countries, questions), nil
}

// Data loads every registered table. Kinds without a dataset stay nil.
func (w *Workspace) Data(log *zap.Logger) (dashboard.Data, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var data dashboard.Data
	var err error
	for _, d := range w.Sorted() {
		switch d.Kind {
		case KindMeans:
			data.Means, err = survey.ReadWide(d.Path)
		case KindYouth:
			data.Youth, err = survey.ReadWide(d.Path)
		case KindCO2:
			data.CO2, err = indicators.LoadCO2(d.Path)
		case KindTax:
			data.Tax, err = pricing.ReadSummary(d.Path)
		case KindEPI:
			data.EPI, err = indicators.LoadEPI(d.Path)
		default:
			continue
		}
		if err != nil {
			return data, fmt.Errorf("load %s dataset %s: %w", d.Kind, d.Name, err)
		}
		log.Debug("loaded dataset", zap.String("kind", string(d.Kind)), zap.String("path", d.Path))
	}
	return data, nil
}

// Dashboard loads the workspace and builds a dashboard over it.
func (w *Workspace) Dashboard(defaults dashboard.Defaults, log *zap.Logger) (*dashboard.Dashboard, error) {
	cat, err := w.Catalog()
	if err != nil {
		return nil, err
	}
	data, err := w.Data(log)
	if err != nil {
		return nil, err
	}
	return dashboard.New(cat, data, defaults), nil
}
