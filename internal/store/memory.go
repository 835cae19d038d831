package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// subBuffer is how many undelivered snapshots a subscriber may lag behind
// before newer states start replacing its view of older ones.
const subBuffer = 16

type memorySub struct {
	ch   chan Snapshot
	path string
}

// MemoryStore is an in-process Store used by tests and single-node setups.
// It preserves per-path write order for subscribers but, like the real
// service, offers no conditional writes.
type MemoryStore struct {
	mu      sync.Mutex
	docs    map[string]map[string]json.RawMessage
	revs    map[string]int64
	subs    map[int64]*memorySub
	nextSub int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]json.RawMessage),
		revs: make(map[string]int64),
		subs: make(map[int64]*memorySub),
	}
}

func (m *MemoryStore) CreateDocument(ctx context.Context, collection string, fields Fields) (string, error) {
	id := uuid.NewString()
	withID := make(Fields, len(fields)+1)
	for k, v := range fields {
		withID[k] = v
	}
	withID["id"] = id
	if err := m.PutDocument(ctx, collection+"/"+id, withID); err != nil {
		return "", err
	}
	return id, nil
}

func (m *MemoryStore) PutDocument(ctx context.Context, path string, fields Fields) error {
	enc, err := encodeFields(fields)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = enc
	m.revs[path]++
	m.notifyLocked(path)
	return nil
}

func (m *MemoryStore) GetDocument(ctx context.Context, path string, out interface{}) error {
	m.mu.Lock()
	doc, ok := m.docs[path]
	var data []byte
	var err error
	if ok {
		data, err = json.Marshal(doc)
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (m *MemoryStore) UpdateFields(ctx context.Context, path string, fields Fields) error {
	enc, err := encodeFields(fields)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[path]
	if !ok {
		return ErrNotFound
	}
	for k, v := range enc {
		doc[k] = v
	}
	m.revs[path]++
	m.notifyLocked(path)
	return nil
}

func (m *MemoryStore) DeleteDocument(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[path]; !ok {
		return ErrNotFound
	}
	delete(m.docs, path)
	m.revs[path]++
	m.notifyLocked(path)
	return nil
}

func (m *MemoryStore) ListDocuments(ctx context.Context, collection string) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var snaps []Snapshot
	for path, doc := range m.docs {
		if parentCollection(path) != collection {
			continue
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, Snapshot{Path: path, Rev: m.revs[path], Data: data})
	}
	return snaps, nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, path string) (<-chan Snapshot, func(), error) {
	sub := &memorySub{ch: make(chan Snapshot, subBuffer), path: path}

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = sub
	// Deliver the current state immediately so a fresh subscriber does not
	// have to race its first read against the next write.
	if doc, ok := m.docs[path]; ok {
		if data, err := json.Marshal(doc); err == nil {
			sub.ch <- Snapshot{Path: path, Rev: m.revs[path], Data: data}
		}
	}
	m.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			close(sub.ch)
			m.mu.Unlock()
		})
	}
	return sub.ch, stop, nil
}

// notifyLocked pushes the new state of path to document and collection
// subscribers. Caller holds m.mu, which is what serializes delivery order.
func (m *MemoryStore) notifyLocked(path string) {
	var data []byte
	if doc, ok := m.docs[path]; ok {
		data, _ = json.Marshal(doc)
	}
	snap := Snapshot{Path: path, Rev: m.revs[path], Data: data}
	collection := parentCollection(path)
	for _, sub := range m.subs {
		if sub.path != path && sub.path != collection {
			continue
		}
		select {
		case sub.ch <- snap:
		default:
			// Lagging subscriber: drop its oldest pending state so it
			// still converges on the latest.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snap:
			default:
			}
		}
	}
}
