package app

import (
	"sync"

	"github.com/dkeye/clique/internal/core"
	"github.com/dkeye/clique/internal/domain"
	"github.com/dkeye/clique/internal/metrics"
	"github.com/rs/zerolog/log"
)

var _ core.RoomManager = (*RoomManagerImpl)(nil)

// RoomManagerImpl is the process-wide room registry.
// Lock order: f.mu before any room lock.
type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]core.RoomService
}

func NewRoomManager() *RoomManagerImpl {
	return &RoomManagerImpl{rooms: make(map[domain.RoomID]core.RoomService)}
}

func (f *RoomManagerImpl) GetOrCreate(id domain.RoomID) core.RoomService {
	f.mu.RLock()
	room, ok := f.rooms[id]
	f.mu.RUnlock()
	if ok {
		return room
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getOrCreateLocked(id)
}

func (f *RoomManagerImpl) getOrCreateLocked(id domain.RoomID) core.RoomService {
	if room, ok := f.rooms[id]; ok {
		return room
	}
	room := core.NewRoomService(domain.NewRoom(id))
	f.rooms[id] = room
	metrics.RoomsActive.Inc()
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return room
}

func (f *RoomManagerImpl) Get(id domain.RoomID) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

func (f *RoomManagerImpl) Attach(id domain.RoomID, ms core.MemberSession) (core.RoomService, core.JoinResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room := f.getOrCreateLocked(id)
	res, err := room.AddMember(ms)
	if err != nil {
		return nil, core.JoinResult{}, err
	}
	return room, res, nil
}

func (f *RoomManagerImpl) RemoveIfEmpty(id domain.RoomID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return false
	}
	if !room.CloseIfEmpty() {
		log.Debug().Str("module", "app.rooms").Str("room", string(id)).Int("members", room.MemberCount()).Msg("room kept, not empty")
		return false
	}
	delete(f.rooms, id)
	metrics.RoomsActive.Dec()
	metrics.RoomsRemoved.Inc()
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room removed")
	return true
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for id, r := range f.rooms {
		out = append(out, core.RoomInfo{ID: id, MemberCount: r.MemberCount()})
	}
	return out
}

func (f *RoomManagerImpl) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rooms)
}

func (f *RoomManagerImpl) StopRoom(id domain.RoomID) []core.MemberSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return nil
	}
	delete(f.rooms, id)
	metrics.RoomsActive.Dec()
	metrics.RoomsRemoved.Inc()
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room stopped")
	return room.Close()
}
