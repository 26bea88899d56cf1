package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"handlemock/internal/codec"
	"handlemock/internal/domain"
	"handlemock/internal/journal"
	"handlemock/internal/lasthandle"
	"handlemock/internal/loader"
	"handlemock/internal/metric"
	"handlemock/internal/store"
)

// ErrJournalDisabled is returned by journal queries when no journal is configured
var ErrJournalDisabled = errors.New("journal disabled")

// Journal is the operation log the service writes to
type Journal interface {
	Record(ctx context.Context, e journal.Entry) error
	Recent(ctx context.Context, handle string, limit int) ([]journal.Entry, error)
	LastHandle(ctx context.Context) (string, error)
}

// Options holds the optional collaborators of HandleService
type Options struct {
	Journal        Journal
	Metrics        *metric.Metrics
	LastHandleFile string
	Logger         *slog.Logger
}

// HandleService is the single owner of the record store. It adds events,
// journaling, metrics and logging around the store operations.
type HandleService struct {
	store          *store.Store
	eventBus       *EventBus
	journal        Journal
	metrics        *metric.Metrics
	lastHandleFile string
	log            *slog.Logger

	mu          sync.Mutex
	lastCreated string
}

// NewHandleService creates a new handle service
func NewHandleService(st *store.Store, eventBus *EventBus, opts Options) *HandleService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &HandleService{
		store:          st,
		eventBus:       eventBus,
		journal:        opts.Journal,
		metrics:        opts.Metrics,
		lastHandleFile: opts.LastHandleFile,
		log:            logger.With("component", "service"),
	}
	if s.metrics != nil && eventBus != nil {
		eventBus.OnDrop(func(Event) { s.metrics.EventsDropped.Inc() })
	}
	s.updateSize()
	return s
}

// RegisterPrefix makes the prefix namespace available
func (s *HandleService) RegisterPrefix(ctx context.Context, prefix string) {
	if !s.store.RegisterPrefix(prefix) {
		return
	}
	s.log.Info("registered prefix", "prefix", prefix)
	s.record(ctx, journal.Entry{Op: journal.OpRegisterPrefix, Handle: prefix})
	s.publish(EventPrefixRegistered, map[string]string{"prefix": prefix})
	s.updateSize()
}

// GetHandle returns the values stored for prefix/suffix
func (s *HandleService) GetHandle(ctx context.Context, prefix, suffix string) (domain.ValueList, error) {
	started := time.Now()
	values, err := s.store.GetHandle(prefix, suffix)
	s.observe("get", store.KindOf(err), started)
	if err != nil {
		s.log.Debug("get failed", "handle", domain.HandleName(prefix, suffix), "err", err)
		return nil, err
	}
	s.log.Debug("get", "handle", domain.HandleName(prefix, suffix), "values", len(values))
	return values, nil
}

// PutOptions are the request options of a put.
type PutOptions struct {
	Overwrite bool
	// Indices are the index query parameters. They are reported in the
	// journal and events only; merge targets come from the payload.
	Indices []string
}

// PutHandle creates or, with overwrite, merges a handle record
func (s *HandleService) PutHandle(ctx context.Context, prefix, suffix string, payload any, opts PutOptions) (store.Kind, error) {
	started := time.Now()
	handle := domain.HandleName(prefix, suffix)
	s.log.Debug("put", "handle", handle, "overwrite", opts.Overwrite, "indices", opts.Indices, "payload", payload)

	kind, err := s.store.PutHandle(prefix, suffix, payload, store.PutOptions{Overwrite: opts.Overwrite})
	s.observe("put", kind, started)
	if err != nil {
		s.log.Debug("put rejected", "handle", handle, "kind", kind.String(), "err", err)
		return kind, err
	}

	count := s.valueCount(prefix, suffix)
	switch kind {
	case store.KindCreated:
		s.log.Info("added handle", "handle", handle, "values", count)
		s.record(ctx, journal.Entry{Op: journal.OpCreate, Handle: handle, Values: count})
		s.publish(EventHandleCreated, HandlePayload{Handle: handle, Values: count})
		s.setLastCreated(handle)
	case store.KindUpdated:
		s.log.Info("updated handle", "handle", handle, "values", count)
		s.record(ctx, journal.Entry{Op: journal.OpUpdate, Handle: handle, Indices: opts.Indices, Values: count})
		s.publish(EventHandleUpdated, HandlePayload{Handle: handle, Indices: opts.Indices, Values: count})
	}
	s.updateSize()
	return kind, nil
}

// Delete removes a handle record, or only the listed indices of it
func (s *HandleService) Delete(ctx context.Context, prefix, suffix string, indices []string) (store.Kind, error) {
	started := time.Now()
	handle := domain.HandleName(prefix, suffix)

	kind, err := s.store.Delete(prefix, suffix, indices)
	s.observe("delete", kind, started)
	if err != nil {
		s.log.Debug("delete failed", "handle", handle, "err", err)
		return kind, err
	}

	if len(indices) == 0 {
		s.log.Info("deleted handle", "handle", handle)
		s.record(ctx, journal.Entry{Op: journal.OpDelete, Handle: handle})
		s.publish(EventHandleDeleted, HandlePayload{Handle: handle})
	} else {
		count := s.valueCount(prefix, suffix)
		s.log.Info("deleted values", "handle", handle, "indices", indices, "remaining", count)
		s.record(ctx, journal.Entry{Op: journal.OpDeleteValues, Handle: handle, Indices: indices, Values: count})
		s.publish(EventValuesDeleted, HandlePayload{Handle: handle, Indices: indices, Values: count})
	}
	s.updateSize()
	return kind, nil
}

// ReverseLookup returns the handles under prefix matching all filters
func (s *HandleService) ReverseLookup(ctx context.Context, prefix string, filters map[string]string) ([]string, error) {
	started := time.Now()
	handles, err := s.store.ReverseLookup(prefix, filters)
	s.observe("reverse_lookup", store.KindOf(err), started)
	if err != nil {
		s.log.Debug("reverse lookup failed", "prefix", prefix, "filters", filters, "err", err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.LookupResults.Observe(float64(len(handles)))
	}
	s.log.Debug("reverse lookup", "prefix", prefix, "filters", filters, "matches", len(handles))
	return handles, nil
}

// LoadSeed applies a seed snapshot to the store
func (s *HandleService) LoadSeed(ctx context.Context, snap store.Snapshot, overwrite bool) store.LoadStats {
	stats := s.store.Load(snap, overwrite)
	s.log.Info("seed loaded",
		"prefixes", stats.Prefixes, "created", stats.Created,
		"updated", stats.Updated, "skipped", stats.Skipped)
	s.record(ctx, journal.Entry{Op: journal.OpSeed, Handle: "*", Values: stats.Created + stats.Updated})
	s.publish(EventSeedLoaded, stats)
	s.updateSize()
	return stats
}

// LoadSeedFile reads a YAML seed file and applies it to the store
func (s *HandleService) LoadSeedFile(ctx context.Context, path string, overwrite bool) (store.LoadStats, error) {
	snap, err := loader.LoadYAML(path)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SeedReloads.WithLabelValues("error").Inc()
		}
		return store.LoadStats{}, err
	}
	if s.metrics != nil {
		s.metrics.SeedReloads.WithLabelValues("ok").Inc()
	}
	s.log.Debug("seed file parsed", "path", path, "prefixes", len(snap))
	return s.LoadSeed(ctx, snap, overwrite), nil
}

// Export writes the store contents to w in the exporter's format
func (s *HandleService) Export(ctx context.Context, exp codec.Exporter, w io.Writer) error {
	return exp.Export(s.store.Snapshot(), w)
}

// Import parses r with imp and applies the result like a seed
func (s *HandleService) Import(ctx context.Context, imp codec.Importer, r io.Reader, overwrite bool) (store.LoadStats, error) {
	snap, err := imp.Parse(r)
	if err != nil {
		return store.LoadStats{}, err
	}
	s.log.Info("importing handles", "format", imp.Format(), "prefixes", len(snap), "overwrite", overwrite)
	return s.LoadSeed(ctx, snap, overwrite), nil
}

// Prefixes lists the registered prefixes
func (s *HandleService) Prefixes(ctx context.Context) []string {
	return s.store.Prefixes()
}

// RecentOperations returns journal entries, newest first
func (s *HandleService) RecentOperations(ctx context.Context, handle string, limit int) ([]journal.Entry, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.Recent(ctx, handle, limit)
}

// LastHandle returns the most recently created handle. The journal is
// consulted first, then the last-handle file, then process memory.
func (s *HandleService) LastHandle(ctx context.Context) (string, error) {
	if s.journal != nil {
		h, err := s.journal.LastHandle(ctx)
		if err != nil || h != "" {
			return h, err
		}
	}
	if s.lastHandleFile != "" {
		h, err := lasthandle.Read(s.lastHandleFile)
		if err != nil || h != "" {
			return h, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCreated, nil
}

func (s *HandleService) setLastCreated(handle string) {
	s.mu.Lock()
	s.lastCreated = handle
	s.mu.Unlock()

	if s.lastHandleFile == "" {
		return
	}
	if err := lasthandle.Write(s.lastHandleFile, handle); err != nil {
		s.log.Warn("failed to write last handle file", "path", s.lastHandleFile, "err", err)
	}
}

func (s *HandleService) valueCount(prefix, suffix string) int {
	values, err := s.store.GetHandle(prefix, suffix)
	if err != nil {
		return 0
	}
	return len(values)
}

func (s *HandleService) record(ctx context.Context, e journal.Entry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, e); err != nil {
		s.log.Warn("failed to journal operation", "op", e.Op, "handle", e.Handle, "err", err)
		if s.metrics != nil {
			s.metrics.JournalErrors.Inc()
		}
	}
}

func (s *HandleService) publish(t EventType, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(Event{Type: t, Payload: payload})
}

func (s *HandleService) observe(op string, kind store.Kind, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveOperation(op, kind.String(), started)
}

func (s *HandleService) updateSize() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetSize(len(s.store.Prefixes()), s.store.Len())
}
