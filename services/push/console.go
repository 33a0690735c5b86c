package pushsvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/foe05/HGMH-App/core"
)

type consoleService struct {
	logger core.Logger
}

var _ core.PushService = (*consoleService)(nil)

// NewConsoleService logs push messages instead of delivering them.
func NewConsoleService(logger core.Logger) core.PushService {
	return &consoleService{logger: logger}
}

func (svc consoleService) Send(_ context.Context, msg core.PushMessage) error {
	svc.logger.Info(fmt.Sprintf("push to %s: %s - %s (%s %s)", msg.Token, msg.Title, msg.Body, msg.Type, msg.DeepLink))
	return nil
}

// Mock records push messages; tokens listed in Failing are rejected.
type Mock struct {
	mu      sync.Mutex
	sent    []core.PushMessage
	Failing map[string]bool
}

var _ core.PushService = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{Failing: make(map[string]bool)}
}

func (m *Mock) Send(_ context.Context, msg core.PushMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Failing[msg.Token] {
		return fmt.Errorf("invalid registration token %q", msg.Token)
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *Mock) Sent() []core.PushMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	sent := make([]core.PushMessage, len(m.sent))
	copy(sent, m.sent)
	return sent
}

func (m *Mock) Reset() {
	m.mu.Lock()
	m.sent = nil
	m.Failing = make(map[string]bool)
	m.mu.Unlock()
}
