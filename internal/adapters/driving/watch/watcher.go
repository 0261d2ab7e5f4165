// Package watch feeds the ingestor from a directory of chunk files.
// Each watched file holds plain text; blank lines separate chunks.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tenantrag/tenantrag/internal/core/ports/driving"
	"github.com/tenantrag/tenantrag/internal/logger"
)

// debounceDelay coalesces the event bursts editors produce on save.
const debounceDelay = 300 * time.Millisecond

// Watcher re-ingests a file's chunks whenever it is created or written.
type Watcher struct {
	watcher    *fsnotify.Watcher
	ingestor   driving.IngestService
	websiteID  string
	extensions []string

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a watcher that ingests into the given website.
func NewWatcher(ingestor driving.IngestService, websiteID string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:    w,
		ingestor:   ingestor,
		websiteID:  websiteID,
		extensions: []string{".txt", ".md"},
		timers:     make(map[string]*time.Timer),
	}, nil
}

// Run watches dir until the context is cancelled.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	logger.Info("Watching %s for website %s", dir, w.websiteID)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !w.isWatchedExtension(event.Name) {
				continue
			}
			w.scheduleIngest(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// Close stops the watcher and cancels pending ingestions.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, timer := range w.timers {
		timer.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.mu.Unlock()
	return w.watcher.Close()
}

// scheduleIngest (re)arms the debounce timer for a path.
func (w *Watcher) scheduleIngest(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(debounceDelay, func() {
		w.ingestFile(ctx, path)
	})
}

// ingestFile reads a file and ingests its chunks as one batch.
func (w *Watcher) ingestFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Watcher: reading %s: %v", path, err)
		return
	}

	texts := SplitChunks(string(data))
	if len(texts) == 0 {
		return
	}

	if _, err := w.ingestor.Ingest(ctx, w.websiteID, texts); err != nil {
		logger.Warn("Watcher: ingesting %s: %v", path, err)
		return
	}
	logger.Info("Watcher: ingested %d chunks from %s", len(texts), path)
}

// isWatchedExtension checks if the file has a watched extension.
func (w *Watcher) isWatchedExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SplitChunks splits text into chunks on blank lines, trimming
// whitespace and dropping empty pieces.
func SplitChunks(text string) []string {
	var chunks []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			chunks = append(chunks, block)
		}
	}
	return chunks
}
