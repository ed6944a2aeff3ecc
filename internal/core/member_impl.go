package core

import (
	"sync"

	"github.com/dkeye/clique/internal/domain"
)

// memberSession implements MemberSession by pairing meta + transport.
type memberSession struct {
	id SessionID

	mu     sync.RWMutex
	meta   *domain.Member
	signal SignalConnection
}

func NewMemberSession(id SessionID) MemberSession {
	return &memberSession{id: id}
}

func (m *memberSession) ID() SessionID { return m.id }

func (m *memberSession) Meta() *domain.Member {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta
}

func (m *memberSession) Signal() SignalConnection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.signal
}

func (m *memberSession) UpdateMeta(meta *domain.Member) MemberSession {
	m.mu.Lock()
	m.meta = meta
	m.mu.Unlock()
	return m
}

func (m *memberSession) UpdateSignal(sc SignalConnection) MemberSession {
	m.mu.Lock()
	m.signal = sc
	m.mu.Unlock()
	return m
}
