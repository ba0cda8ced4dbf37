package api

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"assistant-api/domain"
	"assistant-api/intent"
)

// Query events are best effort: the sender never blocks a request and drops
// events when its buffer is full.

const (
	auditBufferSize = 256
	auditTimeout    = 10 * time.Second
)

type auditSender struct {
	store  TaskStore
	logger *log.Logger
	events chan domain.QueryEvent
	stopCh chan struct{}
	wg     sync.WaitGroup
}

var (
	auditMu     sync.Mutex
	globalAudit *auditSender
)

func initAuditSender(store TaskStore, logger *log.Logger) {
	auditMu.Lock()
	defer auditMu.Unlock()
	if globalAudit != nil {
		return
	}
	s := &auditSender{
		store:  store,
		logger: logger,
		events: make(chan domain.QueryEvent, auditBufferSize),
		stopCh: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	globalAudit = s
}

func (s *auditSender) run() {
	defer s.wg.Done()
	for {
		select {
		case ev := <-s.events:
			ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
			if err := s.store.EnqueueQueryEvent(ctx, ev); err != nil {
				s.logger.WithField("error", err.Error()).Warn("failed to enqueue query event")
			}
			cancel()
		case <-s.stopCh:
			return
		}
	}
}

func sendQueryEvent(query string, matched intent.Intent, status int) {
	auditMu.Lock()
	s := globalAudit
	auditMu.Unlock()
	if s == nil {
		return
	}
	ev := domain.QueryEvent{
		Query:     query,
		Intent:    string(matched),
		Status:    status,
		Timestamp: time.Now().UnixNano(),
	}
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("query event buffer full; dropping event")
	}
}

func shutdownAuditSender() {
	auditMu.Lock()
	s := globalAudit
	globalAudit = nil
	auditMu.Unlock()
	if s == nil {
		return
	}
	close(s.stopCh)
	s.wg.Wait()
}
