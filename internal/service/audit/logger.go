package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
)

const defaultBufferSize = 256

// AsyncLogger queues entries and writes them from a single goroutine.
// Entries are dropped, with a log line, when the queue is full.
type AsyncLogger struct {
	service *Service
	entries chan *model.AuditLog
	wg      sync.WaitGroup
	once    sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewAsyncLogger(service *Service, bufferSize int) *AsyncLogger {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	l := &AsyncLogger{
		service: service,
		entries: make(chan *model.AuditLog, bufferSize),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *AsyncLogger) Log(ctx context.Context, actorID uuid.UUID, action, entityType, entityID string, opts *LogOptions) {
	entry, err := buildEntry(ctx, actorID, action, entityType, entityID, opts)
	if err != nil {
		log.Error().Err(err).Str("entity_type", entityType).Msg("failed to build audit entry")
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		log.Warn().
			Str("action", action).
			Str("entity_type", entityType).
			Str("entity_id", entityID).
			Msg("audit logger closed, entry dropped")
		return
	}

	select {
	case l.entries <- entry:
	default:
		log.Warn().
			Str("action", action).
			Str("entity_type", entityType).
			Str("entity_id", entityID).
			Msg("audit queue full, entry dropped")
	}
}

func (l *AsyncLogger) run() {
	defer l.wg.Done()
	for entry := range l.entries {
		if err := l.service.repo.Create(context.Background(), entry); err != nil {
			log.Error().
				Err(err).
				Str("action", entry.Action).
				Str("entity_type", entry.EntityType).
				Msg("failed to write audit log")
		}
	}
}

// Close flushes queued entries. Later Log calls drop their entry.
func (l *AsyncLogger) Close() {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.entries)
		l.mu.Unlock()
		l.wg.Wait()
	})
}

type nopAuditor struct{}

// Nop returns an Auditor that records nothing.
func Nop() Auditor { return nopAuditor{} }

func (nopAuditor) Log(context.Context, uuid.UUID, string, string, string, *LogOptions) {}
