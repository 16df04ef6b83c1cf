package websocket

import (
	"errors"
	"sort"
	"sync"

	"carrental/pkg/logger"
)

var ErrRegistryClosed = errors.New("connection registry is closed")

// Registry maps a user identity to its live sessions. A user may hold several
// sessions at once (tabs, devices). Buckets are removed as soon as they empty.
type Registry struct {
	mutex    sync.RWMutex
	sessions map[string]map[*Client]struct{}
	closed   bool
	logger   *logger.Logger
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]map[*Client]struct{}),
		logger:   log,
	}
}

func (r *Registry) Register(identity string, client *Client) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}

	bucket, ok := r.sessions[identity]
	if !ok {
		bucket = make(map[*Client]struct{})
		r.sessions[identity] = bucket
	}
	bucket[client] = struct{}{}

	r.logger.WithFields(map[string]interface{}{
		"user":       identity,
		"session_id": client.ID,
		"sessions":   len(bucket),
	}).Debug("Session registered")

	return nil
}

// Unregister removes client from identity's bucket and reports whether it
// was present.
func (r *Registry) Unregister(identity string, client *Client) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	bucket, ok := r.sessions[identity]
	if !ok {
		return false
	}
	if _, ok := bucket[client]; !ok {
		return false
	}

	delete(bucket, client)
	if len(bucket) == 0 {
		delete(r.sessions, identity)
	}

	r.logger.WithFields(map[string]interface{}{
		"user":       identity,
		"session_id": client.ID,
	}).Debug("Session unregistered")

	return true
}

// ConnectedIdentities returns a sorted snapshot of identities with at least
// one live session.
func (r *Registry) ConnectedIdentities() []string {
	r.mutex.RLock()
	identities := make([]string, 0, len(r.sessions))
	for identity := range r.sessions {
		identities = append(identities, identity)
	}
	r.mutex.RUnlock()

	sort.Strings(identities)
	return identities
}

// Sessions returns a snapshot of identity's sessions. The slice is safe to
// use after the lock is released.
func (r *Registry) Sessions(identity string) []*Client {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	bucket := r.sessions[identity]
	clients := make([]*Client, 0, len(bucket))
	for client := range bucket {
		clients = append(clients, client)
	}
	return clients
}

func (r *Registry) IsConnected(identity string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok := r.sessions[identity]
	return ok
}

func (r *Registry) SessionCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	total := 0
	for _, bucket := range r.sessions {
		total += len(bucket)
	}
	return total
}

// Deliver queues payload on every live session of identity and returns how
// many sessions accepted it. A session whose queue is full is closed; its
// read loop then unregisters it.
func (r *Registry) Deliver(identity string, payload []byte) int {
	delivered := 0
	for _, client := range r.Sessions(identity) {
		if client.Enqueue(payload) {
			delivered++
			continue
		}

		r.logger.WithFields(map[string]interface{}{
			"user":       identity,
			"session_id": client.ID,
		}).Warn("Dropping slow session")
		client.Close()
	}
	return delivered
}

// Close rejects further registrations and closes every live session.
func (r *Registry) Close() {
	r.mutex.Lock()
	r.closed = true
	var clients []*Client
	for _, bucket := range r.sessions {
		for client := range bucket {
			clients = append(clients, client)
		}
	}
	r.sessions = make(map[string]map[*Client]struct{})
	r.mutex.Unlock()

	for _, client := range clients {
		client.Close()
	}

	r.logger.WithField("sessions", len(clients)).Info("Connection registry closed")
}
