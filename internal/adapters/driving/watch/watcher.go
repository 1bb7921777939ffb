// Package watch keeps a project in step with a directory. Files created
// or written in the directory are uploaded once they have been quiet for
// the debounce period; removed files delete their document.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
	"github.com/custodia-labs/docsight/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is uploaded.
const DefaultDebounce = time.Second

// ChangeType is what happened to a watched file.
type ChangeType string

// Change types.
const (
	ChangeUpserted ChangeType = "upserted"
	ChangeDeleted  ChangeType = "deleted"
	ChangeSkipped  ChangeType = "skipped"
)

// Change reports one applied file change.
type Change struct {
	Type       ChangeType
	Path       string
	DocumentID string
	Err        error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a file is uploaded.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithInitialSync uploads files already in the directory that the project
// does not have yet when Run starts.
func WithInitialSync(enabled bool) Option {
	return func(w *Watcher) {
		w.initialSync = enabled
	}
}

// WithNotify registers a callback invoked after every applied change.
func WithNotify(fn func(Change)) Option {
	return func(w *Watcher) {
		w.notify = fn
	}
}

// Watcher uploads the files of one directory to one project.
type Watcher struct {
	dir         string
	projectID   string
	documents   driving.DocumentService
	debounce    time.Duration
	initialSync bool
	notify      func(Change)

	mu    sync.Mutex
	known map[string]string // file name -> document ID
}

// New creates a watcher for dir. Only the top level of dir is watched.
func New(dir, projectID string, documents driving.DocumentService, opts ...Option) *Watcher {
	w := &Watcher{
		dir:       dir,
		projectID: projectID,
		documents: documents,
		debounce:  DefaultDebounce,
		known:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, w.dir)
	}

	if err := w.loadKnown(ctx); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	if w.initialSync {
		w.sync(ctx)
	}
	logger.Info("watch: %s -> project %s", w.dir, w.projectID)

	pending := make(map[string]ChangeType)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			kind, ok := w.handleFsEvent(event)
			if !ok {
				continue
			}
			pending[event.Name] = kind
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)

		case <-timer.C:
			for path, kind := range pending {
				w.apply(ctx, path, kind)
			}
			clear(pending)
		}
	}
}

// handleFsEvent maps a filesystem event to the change it calls for.
// Hidden files, directories and attribute-only changes are ignored.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (ChangeType, bool) {
	if isHidden(event.Name) {
		return "", false
	}
	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		return ChangeDeleted, true
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return "", false
		}
		return ChangeUpserted, true
	default:
		return "", false
	}
}

func (w *Watcher) apply(ctx context.Context, path string, kind ChangeType) {
	var change Change
	if kind == ChangeDeleted {
		change = w.remove(ctx, path)
	} else {
		change = w.upsert(ctx, path)
	}

	switch {
	case change.Err != nil:
		logger.Warn("watch: %s %s: %v", kind, filepath.Base(path), change.Err)
	case change.Type == ChangeSkipped:
		logger.Debug("watch: skipped %s", filepath.Base(path))
	default:
		logger.Info("watch: %s %s", change.Type, filepath.Base(path))
	}
	if w.notify != nil {
		w.notify(change)
	}
}

// upsert uploads path, replacing the document of the same name. A file
// removed again before the debounce fired is treated as deleted.
func (w *Watcher) upsert(ctx context.Context, path string) Change {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return w.remove(ctx, path)
	}
	if err != nil {
		return Change{Type: ChangeUpserted, Path: path, Err: err}
	}

	// The old version stays until its replacement is stored.
	name := filepath.Base(path)
	doc, err := w.documents.Upload(ctx, w.projectID, name, content)
	if errors.Is(err, domain.ErrUnsupportedFormat) {
		return Change{Type: ChangeSkipped, Path: path}
	}
	if err != nil {
		return Change{Type: ChangeUpserted, Path: path, Err: err}
	}

	old, replaced := w.lookup(name)
	w.remember(name, doc.ID)
	change := Change{Type: ChangeUpserted, Path: path, DocumentID: doc.ID}
	if replaced && old != doc.ID {
		if err := w.documents.Delete(ctx, old); err != nil && !errors.Is(err, domain.ErrNotFound) {
			change.Err = fmt.Errorf("remove previous version %s: %w", old, err)
		}
	}
	return change
}

func (w *Watcher) remove(ctx context.Context, path string) Change {
	name := filepath.Base(path)
	id, ok := w.lookup(name)
	if !ok {
		return Change{Type: ChangeSkipped, Path: path}
	}
	if err := w.documents.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return Change{Type: ChangeDeleted, Path: path, DocumentID: id, Err: err}
	}
	w.forget(name)
	return Change{Type: ChangeDeleted, Path: path, DocumentID: id}
}

// loadKnown maps the project's document names to their IDs.
func (w *Watcher) loadKnown(ctx context.Context) error {
	docs, err := w.documents.List(ctx, w.projectID)
	if err != nil {
		return fmt.Errorf("listing project documents: %w", err)
	}
	for i := range docs {
		w.remember(docs[i].Name, docs[i].ID)
	}
	return nil
}

// sync uploads visible files the project does not have yet.
func (w *Watcher) sync(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logger.Warn("watch: reading %s: %v", w.dir, err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || isHidden(entry.Name()) {
			continue
		}
		if _, ok := w.lookup(entry.Name()); ok {
			continue
		}
		w.apply(ctx, filepath.Join(w.dir, entry.Name()), ChangeUpserted)
	}
}

func (w *Watcher) lookup(name string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, ok := w.known[name]
	return id, ok
}

func (w *Watcher) remember(name, id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.known[name] = id
}

func (w *Watcher) forget(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.known, name)
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}
