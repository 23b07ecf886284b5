package state

import (
	"sync"
)

// Socket is the write side of a client connection.
type Socket interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Connection is one open battle view.
type Connection struct {
	ID       string
	UserID   string
	Username string
	BattleID string
	Conn     Socket
	ConnMu   sync.Mutex
}

func (c *Connection) WriteJSON(v interface{}) error {
	c.ConnMu.Lock()
	defer c.ConnMu.Unlock()
	return c.Conn.WriteJSON(v)
}

// Registry tracks the connections served by this instance, grouped by battle.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]*Connection
	byBattle map[string]map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{
		conns:    make(map[string]*Connection),
		byBattle: make(map[string]map[string]*Connection),
	}
}

func (r *Registry) Register(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[c.ID] = c
	members, ok := r.byBattle[c.BattleID]
	if !ok {
		members = make(map[string]*Connection)
		r.byBattle[c.BattleID] = members
	}
	members[c.ID] = c
}

func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return
	}
	delete(r.conns, id)
	if members, ok := r.byBattle[c.BattleID]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(r.byBattle, c.BattleID)
		}
	}
}

func (r *Registry) InBattle(battleID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.byBattle[battleID]
	all := make([]*Connection, 0, len(members))
	for _, c := range members {
		all = append(all, c)
	}
	return all
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
