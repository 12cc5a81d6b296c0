package syncutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	var km KeyedMutex
	var wg sync.WaitGroup
	var order []int

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unlock := km.Lock("pepper")
			defer unlock()
			// unsynchronized append is safe only under the keyed lock
			order = append(order, i)
		}(i)
	}
	wg.Wait()

	assert.Len(t, order, 100)
}

func TestKeyedMutex_SameKeySameShard(t *testing.T) {
	var km KeyedMutex
	assert.Same(t, km.shardFor("a"), km.shardFor("a"))
}
