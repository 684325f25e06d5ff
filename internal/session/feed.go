// ABOUTME: Change-feed watcher and event bus for cross-process store changes
// ABOUTME: fsnotify on the store's feed file, with origin filtering and seq dedupe

package session

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vegshop/shopfront/internal/dedupe"
	"github.com/vegshop/shopfront/internal/kv"
)

// Event is one observed store change from another process.
type Event = kv.Change

// Handler receives bus events. Handlers run on the watcher goroutine and
// must not block.
type Handler func(Event)

// Bus fans observed store changes out to subscribers.
type Bus struct {
	handlers []Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler. Subscription happens during wiring,
// before the watcher starts; the bus is not safe for concurrent Subscribe.
func (b *Bus) Subscribe(fn Handler) {
	b.handlers = append(b.handlers, fn)
}

// publish delivers an event to all subscribers in order.
func (b *Bus) publish(e Event) {
	for _, fn := range b.handlers {
		fn(e)
	}
}

// pollInterval backs up fsnotify in case a feed write is coalesced away.
const pollInterval = 2 * time.Second

// Watcher tails the store's change journal and publishes changes made by
// other processes. Our own writes are filtered by origin; overlapping
// wake-ups are deduplicated by sequence number.
type Watcher struct {
	store   *kv.SQLiteStore
	bus     *Bus
	seen    *dedupe.Cache
	lastSeq int64
	fsw     *fsnotify.Watcher
	logger  *slog.Logger
	done    chan struct{}
	stop    sync.Once
}

// NewWatcher creates a watcher over the given store, publishing to bus.
// Only changes made after Start is called are observed: missed mutations
// are not replayed, the current store state is what matters.
func NewWatcher(store *kv.SQLiteStore, bus *Bus) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		store:  store,
		bus:    bus,
		seen:   dedupe.New(time.Minute, 4096),
		fsw:    fsw,
		logger: slog.Default().With("component", "watch"),
		done:   make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the watch loop runs until Stop is
// called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	seq, err := w.store.LastSeq()
	if err != nil {
		return err
	}
	w.lastSeq = seq

	// Watch the directory: the feed file may not exist yet, and some
	// platforms drop watches on files replaced by rename.
	if err := w.fsw.Add(filepath.Dir(w.store.FeedPath())); err != nil {
		return err
	}

	go w.run(ctx)
	return nil
}

// run is the watch loop.
func (w *Watcher) run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name == w.store.FeedPath() && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.drain()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		case <-ticker.C:
			w.drain()
		}
	}
}

// drain publishes all journal entries newer than the last one seen,
// skipping our own writes.
func (w *Watcher) drain() {
	changes, last, err := w.store.ChangesSince(w.lastSeq)
	if err != nil {
		w.logger.Warn("reading change journal failed", "error", err)
		return
	}
	w.lastSeq = last

	for _, c := range changes {
		if c.Origin == w.store.Origin() {
			continue
		}
		if w.seen.Seen(strconv.FormatInt(c.Seq, 10)) {
			continue
		}
		w.logger.Debug("store changed in another process", "key", c.Key, "op", c.Op)
		w.bus.publish(c)
	}
}

// Stop ends the watch loop and releases the fsnotify watcher. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.stop.Do(func() {
		close(w.done)
		w.fsw.Close()
	})
}
