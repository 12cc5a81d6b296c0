package syncutil

import (
	"hash/fnv"
	"sync"
)

const keyedShards = 256

// KeyedMutex serializes work per string key (a subject ID) using a fixed pool
// of mutexes. Two keys may share a shard; that only costs throughput.
type KeyedMutex struct {
	shards [keyedShards]sync.Mutex
}

// Lock blocks until key's shard is held and returns the matching unlock.
func (m *KeyedMutex) Lock(key string) (unlock func()) {
	mu := m.shardFor(key)
	mu.Lock()
	return mu.Unlock
}

func (m *KeyedMutex) shardFor(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &m.shards[h.Sum32()%keyedShards]
}
