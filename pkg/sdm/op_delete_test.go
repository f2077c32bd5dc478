package sdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSecurityObject(bootstrapIID0 bool) *Object {
	mk := func(iid uint16, bootstrap bool) *Instance {
		return &Instance{IID: iid, Resources: []*Resource{
			NewSingleResource(ResourceSpec{RID: RIDSecurityBootstrapServer, Kind: OpRW, ValueType: TypeBool}, BoolValue(bootstrap)),
		}}
	}
	return &Object{OID: OIDSecurity, Capacity: 4, Instances: []*Instance{mk(0, bootstrapIID0), mk(1, !bootstrapIID0)}}
}

func TestDeleteInstance(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(2, 0.0, 2.0)))

	dt, err := BeginDelete(reg, InstancePath(3303, 0), false)
	require.NoError(t, err)
	require.NoError(t, dt.End())

	obj, _ := reg.Find(3303)
	assert.Equal(t, 1, len(obj.Instances))
	assert.Equal(t, uint16(1), obj.Instances[0].IID)
}

func TestBootstrapDeleteWildcardSkipsBootstrapInstanceAndDevice(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newSecurityObject(true)))
	require.NoError(t, reg.Register(&Object{OID: OIDDevice, Capacity: 1, Instances: []*Instance{{IID: 0}}}))

	dt, err := BeginDelete(reg, RootPath(), true)
	require.NoError(t, err)
	require.NoError(t, dt.End())

	sec, _ := reg.Find(OIDSecurity)
	require.Equal(t, 1, len(sec.Instances))
	assert.Equal(t, uint16(0), sec.Instances[0].IID)

	dev, _ := reg.Find(OIDDevice)
	assert.Equal(t, 1, len(dev.Instances))
}

func TestBootstrapDeleteDirectBootstrapInstanceRejected(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newSecurityObject(true)))

	dt, err := BeginDelete(reg, InstancePath(OIDSecurity, 0), true)
	require.NoError(t, err)
	err = dt.End()
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, KindOf(err))
}

func TestDeleteResourceInstance(t *testing.T) {
	reg := NewRegistry(4)
	res := NewMultiResource(ResourceSpec{RID: 6, Kind: OpRWm, ValueType: TypeInt}, 10)
	require.NoError(t, res.insertInstance(0, IntValue(1)))
	require.NoError(t, res.insertInstance(1, IntValue(2)))
	obj := &Object{OID: 3303, Capacity: 1, Instances: []*Instance{{IID: 0, Resources: []*Resource{res}}}}
	require.NoError(t, reg.Register(obj))

	dt, err := BeginDelete(reg, ResourceInstancePath(3303, 0, 6, 0), false)
	require.NoError(t, err)
	require.NoError(t, dt.End())

	assert.Equal(t, 1, res.InstanceCount())
	assert.Equal(t, uint16(1), res.Instances()[0].RIID)
}
