package sdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTemperatureObject builds a minimal IPSO-3303-shaped Object with a
// single readable/writable Double Resource (5700), used throughout the
// op_*.go tests as a stand-in for a concrete well-known Object.
func newTemperatureObject(capacity uint16, instanceValues ...float64) *Object {
	obj := &Object{OID: 3303, Version: "1.1", Capacity: capacity}
	for i, v := range instanceValues {
		inst := &Instance{IID: uint16(i)}
		inst.Resources = []*Resource{
			NewSingleResource(ResourceSpec{RID: 5700, Kind: OpRW, ValueType: TypeDouble}, DoubleValue(v)),
		}
		obj.Instances = append(obj.Instances, inst)
	}
	return obj
}

func TestRegistryRegisterOrdering(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(&Object{OID: 5, Capacity: 1}))
	require.NoError(t, reg.Register(&Object{OID: 1, Capacity: 1}))
	require.NoError(t, reg.Register(&Object{OID: 3, Capacity: 1}))

	oids := make([]uint16, len(reg.Objects()))
	for i, o := range reg.Objects() {
		oids[i] = o.OID
	}
	assert.Equal(t, []uint16{1, 3, 5}, oids)
}

func TestRegistryDuplicateOID(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(&Object{OID: 5, Capacity: 1}))
	err := reg.Register(&Object{OID: 5, Capacity: 1})
	require.Error(t, err)
	assert.Equal(t, KindLogic, KindOf(err))
}

func TestRegistryCapacityExhausted(t *testing.T) {
	reg := NewRegistry(1)
	require.NoError(t, reg.Register(&Object{OID: 1, Capacity: 1}))
	err := reg.Register(&Object{OID: 2, Capacity: 1})
	require.Error(t, err)
	assert.Equal(t, KindMemory, KindOf(err))
}

func TestRegistryRegisterUnregisterRoundTrip(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(&Object{OID: 5, Capacity: 1}))
	require.NoError(t, reg.Unregister(5))
	assert.Empty(t, reg.Objects())
}

func TestRegistryRejectsInvalidObject(t *testing.T) {
	reg := NewRegistry(4)
	bad := &Object{OID: 1, Capacity: 1, Instances: []*Instance{
		{IID: 0}, {IID: 0},
	}}
	err := reg.Register(bad)
	require.Error(t, err)
	assert.Equal(t, KindInputArg, KindOf(err))
}

func TestMultiResourceInstanceOrdering(t *testing.T) {
	res := NewMultiResource(ResourceSpec{RID: 6, Kind: OpRWm, ValueType: TypeInt}, 10)
	require.NoError(t, res.insertInstance(2, IntValue(2)))
	require.NoError(t, res.insertInstance(0, IntValue(0)))
	require.NoError(t, res.insertInstance(1, IntValue(1)))

	var riids []uint16
	for _, ri := range res.Instances() {
		riids = append(riids, ri.RIID)
	}
	assert.Equal(t, []uint16{0, 1, 2}, riids)
}
