package websocket

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAdmit(t *testing.T) {
	registry := NewRegistry()

	conn := registry.Admit("user-1", "conn-1", "alice", []string{"user-2"})

	require.NotNil(t, conn)
	assert.Equal(t, "user-1", conn.UserID)
	assert.Equal(t, "conn-1", conn.ConnectionID)
	assert.Equal(t, "alice", conn.Username)
	assert.Equal(t, []string{"user-2"}, conn.DirectConnectionIDs)
	assert.NotZero(t, conn.AdmittedAt)
	assert.True(t, registry.IsLive("user-1"))
}

func TestRegistryAdmitOverwritesPriorEntry(t *testing.T) {
	registry := NewRegistry()

	registry.Admit("user-1", "conn-1", "alice", nil)
	registry.Admit("user-1", "conn-2", "alice", nil)

	conn := registry.Lookup("user-1")
	require.NotNil(t, conn)
	assert.Equal(t, "conn-2", conn.ConnectionID)
	assert.Len(t, registry.LiveUserIDs(), 1)
}

func TestRegistryEvict(t *testing.T) {
	registry := NewRegistry()
	registry.Admit("user-1", "conn-1", "alice", []string{"user-2"})

	evicted := registry.Evict("user-1")

	require.NotNil(t, evicted)
	assert.Equal(t, "conn-1", evicted.ConnectionID)
	assert.Equal(t, []string{"user-2"}, evicted.DirectConnectionIDs)
	assert.False(t, registry.IsLive("user-1"))
}

func TestRegistryEvictAbsentUserIsNoop(t *testing.T) {
	registry := NewRegistry()

	assert.Nil(t, registry.Evict("ghost"))
	assert.Nil(t, registry.Evict("ghost"))
}

func TestRegistryLookupAbsentUser(t *testing.T) {
	registry := NewRegistry()

	assert.Nil(t, registry.Lookup("ghost"))
	assert.False(t, registry.IsLive("ghost"))
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", n)
			registry.Admit(userID, fmt.Sprintf("conn-%d", n), "user", nil)
			registry.IsLive(userID)
			registry.Evict(userID)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, registry.LiveUserIDs())
}
