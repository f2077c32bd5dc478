package sdm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveChangeNotification(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(1, 0.0)))
	table := NewObservationTable(10)

	t0 := time.Unix(1000, 0)
	path := ResourcePath(3303, 0, 5700)
	rec, err := Observe(reg, table, path, []byte("tok"), t0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), rec.Seq)
	assert.Equal(t, 0.0, rec.LastValue.Double)

	wt, err := BeginWrite(reg, InstancePath(3303, 0), false, false)
	require.NoError(t, err)
	require.NoError(t, wt.WriteEntry(WriteEntry{Path: path, Value: DoubleValue(1.23)}))
	require.NoError(t, wt.End())

	pmin := time.Duration(0)
	require.NoError(t, WriteAttributes(reg, table, path, Attributes{PMin: &pmin}))

	t1 := t0.Add(time.Second)
	require.NoError(t, NotificationTick(reg, table, t1))

	notif, ok, err := NotificationEmit(reg, table, t1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("tok"), notif.Token)
	assert.Equal(t, uint32(2), notif.Seq)
	assert.Equal(t, 1.23, notif.Value.Double)
}

func TestNotificationTickIdempotentWithNoChange(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(1, 0.0)))
	table := NewObservationTable(10)

	t0 := time.Unix(1000, 0)
	path := ResourcePath(3303, 0, 5700)
	_, err := Observe(reg, table, path, nil, t0)
	require.NoError(t, err)

	require.NoError(t, NotificationTick(reg, table, t0.Add(time.Second)))
	require.NoError(t, NotificationTick(reg, table, t0.Add(2*time.Second)))

	_, ok, err := NotificationEmit(reg, table, t0.Add(2*time.Second))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestObserveRejectsSecurityObject(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newSecurityObject(true)))
	table := NewObservationTable(10)

	_, err := Observe(reg, table, ResourcePath(OIDSecurity, 0, RIDSecurityBootstrapServer), nil, time.Unix(0, 0))
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, KindOf(err))
}

func TestObserveRejectsMultiResource(t *testing.T) {
	reg := NewRegistry(4)
	res := NewMultiResource(ResourceSpec{RID: 6, Kind: OpRm, ValueType: TypeInt}, 10)
	require.NoError(t, res.insertInstance(0, IntValue(1)))
	obj := &Object{OID: 3303, Capacity: 1, Instances: []*Instance{{IID: 0, Resources: []*Resource{res}}}}
	require.NoError(t, reg.Register(obj))
	table := NewObservationTable(10)

	_, err := Observe(reg, table, ResourcePath(3303, 0, 6), nil, time.Unix(0, 0))
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, KindOf(err))
}

func TestCancelObserve(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(1, 0.0)))
	table := NewObservationTable(10)

	path := ResourcePath(3303, 0, 5700)
	_, err := Observe(reg, table, path, nil, time.Unix(0, 0))
	require.NoError(t, err)
	CancelObserve(table, path)
	assert.Empty(t, table.Active())
}
