package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "paco-bot/backend/pkg/errors"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// cacheTTL is how long a loaded memory file is served from memory before the
// next read goes back to disk
const cacheTTL = 10 * time.Minute

// fileStore is the shared persistence layer under ChannelStore and UserStore:
// one JSON file per key, a TTL read cache on top, and a per-key writer
// goroutine so writes to the same file never interleave. Save failures are
// logged and the in-memory copy keeps serving.
type fileStore struct {
	dir    string
	cache  *gocache.Cache
	logger *zap.Logger

	mu      sync.Mutex
	writers map[string]*keyWriter
	wg      sync.WaitGroup
}

// keyWriter serializes writes to a single file. Only the latest pending
// payload matters; intermediate snapshots are dropped.
type keyWriter struct {
	mu      sync.Mutex
	pending []byte
	kick    chan struct{}
}

func newFileStore(dir string, logger *zap.Logger) *fileStore {
	return &fileStore{
		dir:     dir,
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
		logger:  logger,
		writers: make(map[string]*keyWriter),
	}
}

// load reads and decodes a JSON file into v, consulting the read cache is the
// caller's job (cached values avoid the decode entirely)
func (s *fileStore) load(name string, v interface{}) error {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return apperrors.NewMemoryLoadFailed(path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.NewMemoryLoadFailed(path, err)
	}
	return nil
}

// enqueueSave hands a snapshot to the key's writer goroutine without blocking
// the caller. The goroutine drains the latest pending snapshot and writes it.
func (s *fileStore) enqueueSave(name string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal memory snapshot",
			zap.String("file", name),
			zap.Error(err),
		)
		return
	}

	s.mu.Lock()
	w, ok := s.writers[name]
	if !ok {
		w = &keyWriter{kick: make(chan struct{}, 1)}
		s.writers[name] = w
		s.wg.Add(1)
		go s.runWriter(name, w)
	}
	s.mu.Unlock()

	w.mu.Lock()
	w.pending = data
	w.mu.Unlock()

	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (s *fileStore) runWriter(name string, w *keyWriter) {
	defer s.wg.Done()
	for range w.kick {
		s.writePending(name, w)
	}
}

func (s *fileStore) writePending(name string, w *keyWriter) {
	w.mu.Lock()
	data := w.pending
	w.pending = nil
	w.mu.Unlock()

	if data == nil {
		return
	}

	path := filepath.Join(s.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger.Error("Failed to create memory directory",
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Error("Failed to persist memory file",
			zap.String("path", path),
			zap.Error(err),
		)
	}
}

// Close flushes pending snapshots in parallel and stops the writers
func (s *fileStore) Close(ctx context.Context) error {
	s.mu.Lock()
	writers := make(map[string]*keyWriter, len(s.writers))
	for name, w := range s.writers {
		writers[name] = w
	}
	s.writers = make(map[string]*keyWriter)
	s.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for name, w := range writers {
		name, w := name, w
		close(w.kick)
		g.Go(func() error {
			s.writePending(name, w)
			return nil
		})
	}
	err := g.Wait()
	s.wg.Wait()
	return err
}
