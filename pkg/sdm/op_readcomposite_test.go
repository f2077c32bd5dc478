package sdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCompositeMultipleBasePaths(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(2, 0.0, 2.0)))
	devObj := &Object{OID: OIDDevice, Capacity: 1, Instances: []*Instance{
		{IID: 0, Resources: []*Resource{
			NewSingleResource(ResourceSpec{RID: 0, Kind: OpR, ValueType: TypeString}, StringValue("acme")),
		}},
	}}
	require.NoError(t, reg.Register(devObj))

	rct, err := BeginReadComposite(reg, false)
	require.NoError(t, err)

	n, err := rct.NextBasePath(ResourcePath(3303, 0, 5700))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	rec, status, err := rct.NextRecord()
	require.NoError(t, err)
	assert.Equal(t, RecordLast, status)
	assert.Equal(t, 0.0, rec.Value.Double)

	n, err = rct.NextBasePath(ResourcePath(OIDDevice, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	rec, status, err = rct.NextRecord()
	require.NoError(t, err)
	assert.Equal(t, RecordLast, status)
	assert.Equal(t, "acme", rec.Value.AsString())

	require.NoError(t, rct.End())
}

func TestReadCompositeUnknownPathFails(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(1, 0.0)))

	rct, err := BeginReadComposite(reg, false)
	require.NoError(t, err)

	_, err = rct.NextBasePath(ObjectPath(9999))
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	_ = rct.End()
}
