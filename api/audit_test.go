package api

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"assistant-api/intent"
)

func resetAuditSenderForTests() {
	shutdownAuditSender()
}

func waitForEvents(t *testing.T, store *mockStore, expected int) {
	t.Helper()
	deadline := time.Now().Add(200 * time.Millisecond)
	for {
		store.mu.Lock()
		n := len(store.events)
		store.mu.Unlock()
		if n == expected {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %d events, got %d", expected, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAuditSenderDeliversEvents(t *testing.T) {
	resetAuditSenderForTests()
	t.Cleanup(resetAuditSenderForTests)

	store := &mockStore{}
	initAuditSender(store, log.New())

	sendQueryEvent("what's the weather", intent.Weather, 200)
	sendQueryEvent("latest news", intent.News, 500)

	waitForEvents(t, store, 2)

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.events[0].Intent != "weather" || store.events[0].Status != 200 {
		t.Fatalf("unexpected first event: %#v", store.events[0])
	}
	if store.events[1].Intent != "news" || store.events[1].Status != 500 {
		t.Fatalf("unexpected second event: %#v", store.events[1])
	}
	if store.events[0].Timestamp == 0 {
		t.Fatal("expected timestamp to be set")
	}
}

func TestSendQueryEventWithoutSenderIsNoop(t *testing.T) {
	resetAuditSenderForTests()

	// Must not panic or block when no sender was initialized.
	sendQueryEvent("anything", intent.General, 200)
}
