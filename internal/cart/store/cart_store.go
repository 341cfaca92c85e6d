package store

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Avi18971911/Emporium/internal/cart/model"
	"go.uber.org/zap"
)

const defaultEvictionInterval = time.Minute

// CartStore holds every user's cart. Implementations must allow carts of
// different users to be read and written concurrently without serializing
// them against each other.
type CartStore interface {
	AddItem(userId string, item model.CartItem)
	Snapshot(userId string) []model.CartItem
	Empty(userId string) int
	Stop()
}

type CartStoreConfig struct {
	// TTL evicts carts that have been idle for longer than this. Zero
	// disables eviction entirely.
	TTL time.Duration
	// EvictionInterval is how often the janitor scans for idle carts.
	EvictionInterval time.Duration
	// OnEvict, when set, is called with the total item quantity removed by
	// each eviction.
	OnEvict func(removedQuantity int)
}

// CartStoreImpl guards the cart map with one lock and each cart's item list
// with another, so requests for different users only contend on the map
// lookup itself. Idle carts are reclaimed by a background janitor when a TTL
// is configured.
type CartStoreImpl struct {
	mu       sync.RWMutex
	carts    map[string]*cartEntry
	config   CartStoreConfig
	logger   *zap.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

type cartEntry struct {
	mu         sync.RWMutex
	items      []model.CartItem
	lastAccess atomic.Int64
	evicted    bool
}

func (ce *cartEntry) touch(now time.Time) {
	ce.lastAccess.Store(now.UnixNano())
}

func NewCartStoreImpl(config CartStoreConfig, logger *zap.Logger) *CartStoreImpl {
	if config.TTL > 0 && config.EvictionInterval <= 0 {
		config.EvictionInterval = defaultEvictionInterval
	}
	cs := &CartStoreImpl{
		carts:  make(map[string]*cartEntry),
		config: config,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if config.TTL > 0 {
		go cs.runJanitor()
	} else {
		close(cs.doneCh)
	}
	return cs
}

// AddItem merges the item into the user's cart, accumulating the quantity
// when the product is already present.
func (cs *CartStoreImpl) AddItem(userId string, item model.CartItem) {
	entry := cs.lockEntry(userId)
	defer entry.mu.Unlock()
	entry.touch(time.Now())
	for i := range entry.items {
		if entry.items[i].ProductID == item.ProductID {
			entry.items[i].Quantity += item.Quantity
			return
		}
	}
	entry.items = append(entry.items, item)
}

// Snapshot returns a copy of the user's cart items. Later mutations of the
// cart never show through the returned slice. An unknown user gets an empty
// snapshot without a cart being created.
func (cs *CartStoreImpl) Snapshot(userId string) []model.CartItem {
	cs.mu.RLock()
	entry, found := cs.carts[userId]
	cs.mu.RUnlock()
	if !found {
		return make([]model.CartItem, 0)
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	if entry.evicted {
		return make([]model.CartItem, 0)
	}
	entry.touch(time.Now())
	items := make([]model.CartItem, len(entry.items))
	copy(items, entry.items)
	return items
}

// Empty removes every item from the user's cart and returns the total
// quantity removed. An unknown user is a no-op.
func (cs *CartStoreImpl) Empty(userId string) int {
	cs.mu.RLock()
	entry, found := cs.carts[userId]
	cs.mu.RUnlock()
	if !found {
		return 0
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.evicted {
		return 0
	}
	entry.touch(time.Now())
	removed := 0
	for _, item := range entry.items {
		removed += item.Quantity
	}
	entry.items = nil
	return removed
}

// Stop halts the eviction janitor and waits for it to finish.
func (cs *CartStoreImpl) Stop() {
	cs.stopOnce.Do(func() {
		close(cs.stopCh)
	})
	<-cs.doneCh
}

// lockEntry returns the user's cart entry write-locked, creating it when
// absent. The loop restarts when the janitor evicted the entry between the
// map lookup and the entry lock.
func (cs *CartStoreImpl) lockEntry(userId string) *cartEntry {
	for {
		cs.mu.RLock()
		entry, found := cs.carts[userId]
		cs.mu.RUnlock()
		if !found {
			cs.mu.Lock()
			entry, found = cs.carts[userId]
			if !found {
				entry = &cartEntry{}
				entry.touch(time.Now())
				cs.carts[userId] = entry
			}
			cs.mu.Unlock()
		}
		entry.mu.Lock()
		if entry.evicted {
			entry.mu.Unlock()
			continue
		}
		return entry
	}
}

func (cs *CartStoreImpl) runJanitor() {
	defer close(cs.doneCh)
	ticker := time.NewTicker(cs.config.EvictionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cs.evictExpired(time.Now())
		case <-cs.stopCh:
			return
		}
	}
}

type evictedCart struct {
	userId          string
	removedQuantity int
}

func (cs *CartStoreImpl) evictExpired(now time.Time) {
	cutoff := now.Add(-cs.config.TTL).UnixNano()
	evictedCarts := make([]evictedCart, 0)

	cs.mu.Lock()
	for userId, entry := range cs.carts {
		entry.mu.Lock()
		// An access that slipped in after the scan started refreshes
		// lastAccess before we hold the entry lock, so re-check here.
		if entry.lastAccess.Load() > cutoff {
			entry.mu.Unlock()
			continue
		}
		removed := 0
		for _, item := range entry.items {
			removed += item.Quantity
		}
		entry.evicted = true
		entry.items = nil
		entry.mu.Unlock()
		delete(cs.carts, userId)
		evictedCarts = append(evictedCarts, evictedCart{userId: userId, removedQuantity: removed})
	}
	cs.mu.Unlock()

	for _, evicted := range evictedCarts {
		if evicted.removedQuantity > 0 && cs.config.OnEvict != nil {
			cs.config.OnEvict(evicted.removedQuantity)
		}
		cs.logger.Info(
			"Evicted idle cart",
			zap.String("user_id", evicted.userId),
			zap.Int("removed_quantity", evicted.removedQuantity),
		)
	}
}
