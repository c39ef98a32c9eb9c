package workspace_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/climatelens-cli/internal/dashboard"
	"github.com/KaramelBytes/climatelens-cli/internal/workspace"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tdir := t.TempDir()
	means := writeFile(t, tdir, "means.csv", "Country,Wave,B008\nCAN,5,2.1\nUSA,5,1.9\n")

	ws := workspace.New("demo", "test workspace", filepath.Join(tdir, "ws", "demo"))
	d, replaced, err := ws.AddDataset(means, workspace.KindMeans, "survey means")
	if err != nil {
		t.Fatalf("add dataset: %v", err)
	}
	if replaced != nil {
		t.Fatalf("unexpected replaced dataset")
	}
	if d.Columns != 3 || d.Rows != 2 {
		t.Fatalf("shape = %d cols, %d rows; want 3, 2", d.Columns, d.Rows)
	}
	if err := ws.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	back, err := workspace.Load(ws.RootDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := back.Dataset(workspace.KindMeans)
	if !ok || got.ID != d.ID || got.Description != "survey means" {
		t.Fatalf("dataset not restored: %+v", got)
	}
	names, err := workspace.List(filepath.Join(tdir, "ws"))
	if err != nil || len(names) != 1 || names[0] != "demo" {
		t.Fatalf("list = %v, %v", names, err)
	}
}

func TestAddDatasetReplacesKind(t *testing.T) {
	tdir := t.TempDir()
	a := writeFile(t, tdir, "a.csv", "Country,Wave\n")
	b := writeFile(t, tdir, "b.csv", "Country,Wave\n")
	ws := workspace.New("demo", "", tdir)
	first, _, err := ws.AddDataset(a, workspace.KindYouth, "")
	if err != nil {
		t.Fatal(err)
	}
	_, replaced, err := ws.AddDataset(b, workspace.KindYouth, "")
	if err != nil {
		t.Fatal(err)
	}
	if replaced == nil || replaced.ID != first.ID {
		t.Fatalf("expected first dataset to be replaced")
	}
	if len(ws.Datasets) != 1 {
		t.Fatalf("datasets = %d; want 1", len(ws.Datasets))
	}
}

func TestAddDatasetRejects(t *testing.T) {
	tdir := t.TempDir()
	ws := workspace.New("demo", "", tdir)
	if _, _, err := ws.AddDataset(filepath.Join(tdir, "missing.csv"), workspace.KindCO2, ""); err == nil {
		t.Fatalf("expected error for missing file")
	}
	f := writeFile(t, tdir, "x.csv", "a,b\n")
	if _, _, err := ws.AddDataset(f, "weather", ""); !errors.Is(err, workspace.ErrUnknownKind) {
		t.Fatalf("err = %v; want ErrUnknownKind", err)
	}
}

func TestLoadMissingWorkspace(t *testing.T) {
	if _, err := workspace.Load(t.TempDir()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDashboardFromWorkspace(t *testing.T) {
	tdir := t.TempDir()
	ws := workspace.New("demo", "", tdir)
	files := map[workspace.Kind]string{
		workspace.KindMeans:     writeFile(t, tdir, "means.csv", "COUNTRY_ALPHA,S002VS,B008\nCAN,5,2.1\n"),
		workspace.KindTax:       writeFile(t, tdir, "tax.csv", "ISO3,Country,Carbon Tax,ETS\nCAN,Canada,2019,2018\n"),
		workspace.KindEPI:       writeFile(t, tdir, "epi.csv", "region;date;value;trend\nCanada;2024;61,1;2\n"),
		workspace.KindQuestions: writeFile(t, tdir, "questions.csv", "Variable,Title\nB008,Environment first\n"),
	}
	for kind, path := range files {
		if _, _, err := ws.AddDataset(path, kind, ""); err != nil {
			t.Fatalf("add %s: %v", kind, err)
		}
	}
	d, err := ws.Dashboard(dashboard.Defaults{Countries: []string{"CAN"}}, nil)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	v, err := d.Trends(dashboard.Selection{})
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	if v.Label != "Environment first" || len(v.Lines) != 1 {
		t.Fatalf("unexpected view: %+v", v)
	}
	if _, err := d.EPI(dashboard.Selection{}); err != nil {
		t.Fatalf("epi: %v", err)
	}
}
