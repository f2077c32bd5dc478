package sdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSubtreeOrderAndCount(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(2, 0.0, 2.0)))

	rt, err := BeginRead(reg, ObjectPath(3303), false)
	require.NoError(t, err)
	assert.Equal(t, 2, rt.TotalCount())

	rec1, status1, err := rt.NextRecord()
	require.NoError(t, err)
	assert.Equal(t, RecordMore, status1)
	assert.Equal(t, ResourcePath(3303, 0, 5700), rec1.Path)
	assert.Equal(t, 0.0, rec1.Value.Double)

	rec2, status2, err := rt.NextRecord()
	require.NoError(t, err)
	assert.Equal(t, RecordLast, status2)
	assert.Equal(t, ResourcePath(3303, 1, 5700), rec2.Path)
	assert.Equal(t, 2.0, rec2.Value.Double)

	require.NoError(t, rt.End())
}

func TestReadNoReadableResourcesIsNotFound(t *testing.T) {
	reg := NewRegistry(4)
	obj := &Object{OID: 1, Capacity: 1}
	require.NoError(t, reg.Register(obj))

	_, err := BeginRead(reg, ObjectPath(1), false)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestReadBootstrapRejectsNonServerObject(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(1, 0.0)))

	_, err := BeginRead(reg, ObjectPath(3303), true)
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, KindOf(err))
}

func TestReadBootstrapRejectsDeepPath(t *testing.T) {
	reg := NewRegistry(4)
	srv := &Object{OID: OIDServer, Capacity: 1, Instances: []*Instance{
		{IID: 0, Resources: []*Resource{
			NewSingleResource(ResourceSpec{RID: 0, Kind: OpRW, ValueType: TypeUint}, UintValue(1)),
		}},
	}}
	require.NoError(t, reg.Register(srv))

	_, err := BeginRead(reg, ResourcePath(OIDServer, 0, 0), true)
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, KindOf(err))
}

func TestReadUsesCallback(t *testing.T) {
	reg := NewRegistry(4)
	res := NewSingleResource(ResourceSpec{RID: 5700, Kind: OpR, ValueType: TypeDouble}, Value{})
	res.Callbacks.Read = func(e EntityRef) (Value, error) { return DoubleValue(42.0), nil }
	obj := &Object{OID: 3303, Capacity: 1, Instances: []*Instance{{IID: 0, Resources: []*Resource{res}}}}
	require.NoError(t, reg.Register(obj))

	rt, err := BeginRead(reg, ResourcePath(3303, 0, 5700), false)
	require.NoError(t, err)
	rec, _, err := rt.NextRecord()
	require.NoError(t, err)
	assert.Equal(t, 42.0, rec.Value.Double)
}

func TestSecondOperationWhileInProgressFails(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(1, 0.0)))

	_, err := BeginRead(reg, ObjectPath(3303), false)
	require.NoError(t, err)

	_, err = BeginRead(reg, ObjectPath(3303), false)
	require.Error(t, err)
	assert.Equal(t, KindLogic, KindOf(err))
}
