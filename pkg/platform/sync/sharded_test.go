package sync

import (
	stdsync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShardedMutexSameKeySerializes(t *testing.T) {
	m := NewShardedMutex()
	counter := 0

	var wg stdsync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock("owner-1")
			counter++
			m.Unlock("owner-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestShardedMutexEmptyKey(t *testing.T) {
	m := NewShardedMutex()
	// Empty keys map to shard 0 and must not panic.
	m.Lock("")
	m.Unlock("")
}

func TestShardForIsStable(t *testing.T) {
	m := NewShardedMutex()
	assert.Equal(t, m.shardFor("abc"), m.shardFor("abc"))
}
