// Package workspace holds the uploaded files of a session. It is safe for
// concurrent use and can be persisted to a workspace.json between CLI runs.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/qdata-clean/internal/cleaning"
	"github.com/KaramelBytes/qdata-clean/internal/parser"
	"github.com/KaramelBytes/qdata-clean/internal/table"
	"github.com/KaramelBytes/qdata-clean/internal/utils"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const stateFileName = "workspace.json"

var (
	ErrNotFound  = errors.New("upload not found")
	ErrAmbiguous = errors.New("ambiguous upload reference")
)

// Workspace is the collection of uploads.
type Workspace struct {
	mu      sync.RWMutex
	uploads map[string]*Upload
	active  string
	// procs serializes cleaning runs per upload id.
	procs map[string]*sync.Mutex

	rootDir string
	clock   clockwork.Clock
	logger  *slog.Logger
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithClock sets the clock used for timestamps.
func WithClock(c clockwork.Clock) Option { return func(w *Workspace) { w.clock = c } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(w *Workspace) { w.logger = l } }

// New returns an empty workspace. rootDir may be empty for an in-memory
// workspace that cannot be saved.
func New(rootDir string, opts ...Option) *Workspace {
	w := &Workspace{
		uploads: make(map[string]*Upload),
		procs:   make(map[string]*sync.Mutex),
		rootDir: rootDir,
		clock:   clockwork.NewRealClock(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

type state struct {
	Active    string    `json:"active,omitempty"`
	Uploads   []*Upload `json:"uploads"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Load reads workspace.json from dir. A missing file yields an empty workspace.
func Load(dir string, opts ...Option) (*Workspace, error) {
	w := New(dir, opts...)
	b, err := os.ReadFile(filepath.Join(dir, stateFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return w, nil
		}
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	var st state
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("parse workspace: %w", err)
	}
	for _, u := range st.Uploads {
		if u.Table == nil {
			u.Table = table.New(nil)
		}
		w.uploads[u.ID] = u
	}
	if _, ok := w.uploads[st.Active]; ok {
		w.active = st.Active
	}
	return w, nil
}

// RootDir returns the on-disk directory of the workspace.
func (w *Workspace) RootDir() string { return w.rootDir }

// Save writes workspace.json using atomic write.
func (w *Workspace) Save() error {
	if w.rootDir == "" {
		return errors.New("workspace directory not set")
	}
	w.mu.RLock()
	st := state{Active: w.active, Uploads: w.sorted(), UpdatedAt: w.clock.Now()}
	data, err := utils.PrettyJSON(st)
	w.mu.RUnlock()
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(w.rootDir, stateFileName), data)
}

// Add parses content and stores it as a new upload. Unsupported or
// malformed content leaves the workspace unchanged.
func (w *Workspace) Add(name string, content []byte) (*Upload, error) {
	u, err := w.build(name, content)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.insert(u)
	w.mu.Unlock()
	return u.clone(), nil
}

// Source is a named file to upload.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource reads from a path on disk.
func FileSource(path string) Source {
	return Source{Name: filepath.Base(path), Open: func() (io.ReadCloser, error) { return os.Open(path) }}
}

// AddFiles reads and parses sources concurrently. Either every source is
// added or none is.
func (w *Workspace) AddFiles(ctx context.Context, sources []Source) ([]*Upload, error) {
	built := make([]*Upload, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if _, err := parser.Lookup(src.Name); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			rc, err := src.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", src.Name, err)
			}
			defer rc.Close()
			content, err := io.ReadAll(rc)
			if err != nil {
				return fmt.Errorf("read %s: %w", src.Name, err)
			}
			u, err := w.build(src.Name, content)
			if err != nil {
				return err
			}
			built[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	out := make([]*Upload, len(built))
	for i, u := range built {
		w.insert(u)
		out[i] = u.clone()
	}
	w.mu.Unlock()
	return out, nil
}

func (w *Workspace) build(name string, content []byte) (*Upload, error) {
	t, err := parser.Parse(name, content)
	if err != nil {
		return nil, err
	}
	return &Upload{
		ID:         uuid.NewString(),
		Name:       name,
		Size:       int64(len(content)),
		MimeType:   utils.MimeType(name),
		Table:      t,
		UploadedAt: w.clock.Now(),
	}, nil
}

// insert stores u and makes it active if nothing is. Caller holds mu.
func (w *Workspace) insert(u *Upload) {
	w.uploads[u.ID] = u
	if w.active == "" {
		w.active = u.ID
	}
	w.logger.Info("upload added", "id", u.ID, "name", u.Name, "rows", u.Rows(), "size", u.Size)
}

// Get returns the upload with the exact id.
func (w *Workspace) Get(id string) (*Upload, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	u, ok := w.uploads[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return u.clone(), nil
}

// Resolve finds an upload by id, unique id prefix or unique file name.
func (w *Workspace) Resolve(ref string) (*Upload, error) {
	ref = strings.TrimSpace(ref)
	w.mu.RLock()
	defer w.mu.RUnlock()
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrNotFound)
	}
	if u, ok := w.uploads[ref]; ok {
		return u.clone(), nil
	}
	var matches []*Upload
	for _, u := range w.sorted() {
		if strings.HasPrefix(u.ID, ref) || u.Name == ref {
			matches = append(matches, u)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return matches[0].clone(), nil
	}
	return nil, fmt.Errorf("%w: %q matches %d uploads", ErrAmbiguous, ref, len(matches))
}

// List returns uploads ordered by upload time.
func (w *Workspace) List() []*Upload {
	w.mu.RLock()
	defer w.mu.RUnlock()
	src := w.sorted()
	out := make([]*Upload, len(src))
	for i, u := range src {
		out[i] = u.clone()
	}
	return out
}

// Len returns the number of uploads.
func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.uploads)
}

func (w *Workspace) sorted() []*Upload {
	out := make([]*Upload, 0, len(w.uploads))
	for _, u := range w.uploads {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Remove deletes an upload. Removing the active upload clears the selection.
func (w *Workspace) Remove(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	u, ok := w.uploads[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(w.uploads, id)
	delete(w.procs, id)
	if w.active == id {
		w.active = ""
	}
	w.logger.Info("upload removed", "id", id, "name", u.Name)
	return nil
}

// SetActive selects the upload other commands default to.
func (w *Workspace) SetActive(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.uploads[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	w.active = id
	return nil
}

// Active returns the selected upload, if any.
func (w *Workspace) Active() (*Upload, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	u, ok := w.uploads[w.active]
	if !ok {
		return nil, false
	}
	return u.clone(), true
}

// procLock returns the mutex serializing cleaning runs of an existing upload.
func (w *Workspace) procLock(id string) (*sync.Mutex, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.uploads[id]; !ok {
		return nil, false
	}
	m, ok := w.procs[id]
	if !ok {
		m = &sync.Mutex{}
		w.procs[id] = m
	}
	return m, true
}

// Process runs the pipeline on an upload and replaces its table. Runs on the
// same upload are serialized, so each one cleans the previous run's output.
// On failure the upload keeps its previous table and processed flag.
func (w *Workspace) Process(id string, p *cleaning.Pipeline, opts []cleaning.Option) (*Upload, *cleaning.Result, error) {
	pl, ok := w.procLock(id)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	pl.Lock()
	defer pl.Unlock()

	w.mu.RLock()
	u, ok := w.uploads[id]
	var snapshot *Upload
	if ok {
		snapshot = u.clone()
	}
	w.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	res, err := p.Run(snapshot.Table, opts)
	if err != nil {
		return nil, nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	cur, ok := w.uploads[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	now := w.clock.Now()
	cur.Table = res.Table
	cur.Processed = true
	cur.Options = res.Applied
	cur.ProcessedAt = &now
	w.logger.Info("upload processed", "id", id, "name", cur.Name, "options", len(res.Applied), "rows_before", snapshot.Rows(), "rows_after", res.Table.Len())
	return cur.clone(), res, nil
}
