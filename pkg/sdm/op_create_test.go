package sdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWithImplicitIID(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(2, 0.0, 2.0)))

	obj, _ := reg.Find(3303)
	obj.Capacity = 3

	ct, err := BeginCreate(reg, ObjectPath(3303))
	require.NoError(t, err)
	require.NoError(t, ct.WriteEntry(WriteEntry{Path: ResourcePath(3303, 2, 5700), Value: DoubleValue(1.0)}))
	require.NoError(t, ct.End())

	assert.Equal(t, uint16(2), ct.IID())
	assert.Equal(t, 3, len(obj.Instances))
}

func TestCreateFailsWhenAtCapacity(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(2, 0.0, 2.0)))

	_, err := BeginCreate(reg, ObjectPath(3303))
	require.Error(t, err)
	assert.Equal(t, KindMemory, KindOf(err))
}

func TestCreateEmptyPicksSmallestFreeIID(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(3, 0.0, 2.0)))

	ct, err := BeginCreate(reg, ObjectPath(3303))
	require.NoError(t, err)
	require.NoError(t, ct.End())
	assert.Equal(t, uint16(2), ct.IID())
}

func TestCreateDuplicateExplicitIIDRejected(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(3, 0.0, 2.0)))

	ct, err := BeginCreate(reg, ObjectPath(3303))
	require.NoError(t, err)
	err = ct.CreateInstance(0)
	require.Error(t, err)
	assert.Equal(t, KindMethodNotAllowed, KindOf(err))
	_ = ct.End()
}

func TestCreateThenDeleteLeavesInstanceCountUnchanged(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(3, 0.0, 2.0)))
	obj, _ := reg.Find(3303)
	before := len(obj.Instances)

	ct, err := BeginCreate(reg, ObjectPath(3303))
	require.NoError(t, err)
	require.NoError(t, ct.End())
	iid := ct.IID()

	dt, err := BeginDelete(reg, InstancePath(3303, iid), false)
	require.NoError(t, err)
	require.NoError(t, dt.End())

	assert.Equal(t, before, len(obj.Instances))
}
