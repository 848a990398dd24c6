package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type Publisher interface {
	Publish(ctx context.Context, change OrderChange) error
}

type Broker interface {
	Publisher
	// Subscribe streams changes for storeID until ctx is done or cancel is called.
	Subscribe(ctx context.Context, storeID uuid.UUID) (<-chan OrderChange, func(), error)
}

const subscriberBuffer = 16

// LocalBroker fans changes out to subscribers of the same process.
type LocalBroker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[uuid.UUID]map[int]chan OrderChange
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[uuid.UUID]map[int]chan OrderChange)}
}

// Publish never blocks; a subscriber whose buffer is full misses the change.
func (b *LocalBroker) Publish(ctx context.Context, change OrderChange) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[change.StoreID] {
		select {
		case ch <- change:
		default:
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context, storeID uuid.UUID) (<-chan OrderChange, func(), error) {
	ch := make(chan OrderChange, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[storeID] == nil {
		b.subs[storeID] = make(map[int]chan OrderChange)
	}
	b.subs[storeID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[storeID], id)
			if len(b.subs[storeID]) == 0 {
				delete(b.subs, storeID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel, nil
}
