package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/climatelens-cli/internal/analysis"
	"github.com/KaramelBytes/climatelens-cli/internal/utils"
)

const (
	workspaceFileName = "workspace.json"
)

// Kind names what a dataset holds.
type Kind string

const (
	KindMeans     Kind = "means"
	KindYouth     Kind = "youth"
	KindCO2       Kind = "co2"
	KindTax       Kind = "tax"
	KindEPI       Kind = "epi"
	KindCountries Kind = "countries"
	KindQuestions Kind = "questions"
)

// Kinds lists every accepted dataset kind.
var Kinds = []Kind{KindMeans, KindYouth, KindCO2, KindTax, KindEPI, KindCountries, KindQuestions}

// ErrUnknownKind is returned for dataset kinds outside Kinds.
var ErrUnknownKind = errors.New("unknown dataset kind")

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w %q (use one of %v)", ErrUnknownKind, s, Kinds)
}

// Workspace is a named set of input datasets persisted on disk.
type Workspace struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Datasets    map[string]*Dataset `json:"datasets"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`

	// Not serialized: on-disk location of the workspace.json
	rootDir string `json:"-"`
}

// New constructs an in-memory workspace. Call Save() to persist.
func New(name, description, rootDir string) *Workspace {
	return &Workspace{
		Name:        name,
		Description: description,
		Datasets:    make(map[string]*Dataset),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		rootDir:     rootDir,
	}
}

// Load reads workspace.json from dir.
func Load(dir string) (*Workspace, error) {
	path := filepath.Join(dir, workspaceFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workspace not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	var w Workspace
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("parse workspace: %w", err)
	}
	if w.Datasets == nil {
		w.Datasets = make(map[string]*Dataset)
	}
	w.rootDir = dir
	return &w, nil
}

// Exists reports whether dir holds a workspace.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, workspaceFileName))
	return err == nil
}

// List returns the names of workspaces under root, sorted.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read workspaces dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && Exists(filepath.Join(root, e.Name())) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// RootDir returns the on-disk workspace directory path.
func (w *Workspace) RootDir() string { return w.rootDir }

// Save writes workspace.json using atomic write.
func (w *Workspace) Save() error {
	if w.rootDir == "" {
		return errors.New("workspace root directory not set")
	}
	if err := utils.EnsureDir(w.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	w.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(w)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(w.rootDir, workspaceFileName), data)
}

// AddDataset registers a file under kind. A workspace holds one dataset per
// kind; an existing one is replaced and returned.
func (w *Workspace) AddDataset(path string, kind Kind, description string) (added, replaced *Dataset, err error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, nil, fmt.Errorf("stat dataset: %w", err)
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("dataset %s is a directory", path)
	}
	d := &Dataset{
		ID:          uuid.NewString(),
		Kind:        kind,
		Path:        abs,
		Name:        filepath.Base(abs),
		Description: description,
		AddedAt:     time.Now(),
	}
	d.Columns, d.Rows = shape(abs, kind)

	if w.Datasets == nil {
		w.Datasets = make(map[string]*Dataset)
	}
	if old, ok := w.Dataset(kind); ok {
		delete(w.Datasets, old.ID)
		replaced = old
	}
	w.Datasets[d.ID] = d
	w.UpdatedAt = time.Now()
	return d, replaced, nil
}

// Remove drops the dataset with id.
func (w *Workspace) Remove(id string) bool {
	if _, ok := w.Datasets[id]; !ok {
		return false
	}
	delete(w.Datasets, id)
	w.UpdatedAt = time.Now()
	return true
}

// Dataset returns the dataset registered under kind.
func (w *Workspace) Dataset(kind Kind) (*Dataset, bool) {
	for _, d := range w.Datasets {
		if d.Kind == kind {
			return d, true
		}
	}
	return nil, false
}

// Sorted returns datasets in Kinds order.
func (w *Workspace) Sorted() []*Dataset {
	rank := map[Kind]int{}
	for i, k := range Kinds {
		rank[k] = i
	}
	out := make([]*Dataset, 0, len(w.Datasets))
	for _, d := range w.Datasets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if rank[out[i].Kind] != rank[out[j].Kind] {
			return rank[out[i].Kind] < rank[out[j].Kind]
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// shape counts columns and data rows of delimited files; other formats report zero.
func shape(path string, kind Kind) (int, int) {
	if filepath.Ext(path) == ".xlsx" {
		return 0, 0
	}
	opt := analysis.DefaultOptions()
	opt.MaxRows = 1
	if kind == KindEPI {
		opt.Delimiter = ';'
	}
	t, err := analysis.ReadCSV(path, opt)
	if err != nil {
		return 0, 0
	}
	return len(t.Header), t.Total
}
