package persistence

import (
	"testing"

	"github.com/lwm2m-go/sdm/pkg/objects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltSnapshotStoreSaveLoadRoundTrip(t *testing.T) {
	store, err := NewBoltSnapshotStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	snap := map[uint16]objects.SecurityInstanceData{
		0: {ServerURI: "coap://bootstrap.example", BootstrapServer: true},
		1: {ServerURI: "coap://server.example", SSID: 1, SecretKey: []byte("shh")},
	}
	require.NoError(t, store.SaveSecurity(snap))

	loaded, err := store.LoadSecurity()
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestBoltSnapshotStoreSaveReplacesStaleInstances(t *testing.T) {
	store, err := NewBoltSnapshotStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveSecurity(map[uint16]objects.SecurityInstanceData{
		0: {ServerURI: "coap://bootstrap.example"},
		1: {ServerURI: "coap://server.example"},
	}))
	require.NoError(t, store.SaveSecurity(map[uint16]objects.SecurityInstanceData{
		0: {ServerURI: "coap://bootstrap.example"},
	}))

	loaded, err := store.LoadSecurity()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	_, ok := loaded[1]
	assert.False(t, ok)
}

func TestBoltSnapshotStoreLoadEmpty(t *testing.T) {
	store, err := NewBoltSnapshotStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.LoadSecurity()
	require.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.Empty(t, loaded)
}

func TestSecurityRestoreFromSnapshot(t *testing.T) {
	sec := objects.NewSecurity(4)
	sec.AddInstance(0, objects.SecurityInstanceData{ServerURI: "coap://old.example"})

	sec.Restore(map[uint16]objects.SecurityInstanceData{
		2: {ServerURI: "coap://restored.example", SSID: 7},
	})

	assert.Len(t, sec.Snapshot(), 1)
	assert.Equal(t, "coap://restored.example", sec.Snapshot()[2].ServerURI)
}
