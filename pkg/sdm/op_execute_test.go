package sdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteInvokesCallbackOnce(t *testing.T) {
	reg := NewRegistry(4)
	var calls int
	var gotArg []byte
	res := NewExecutableResource(4, func(e EntityRef, arg []byte) error {
		calls++
		gotArg = arg
		return nil
	})
	obj := &Object{OID: 3303, Capacity: 1, Instances: []*Instance{{IID: 0, Resources: []*Resource{res}}}}
	require.NoError(t, reg.Register(obj))

	et, err := BeginExecute(reg, ResourcePath(3303, 0, 4))
	require.NoError(t, err)
	require.NoError(t, et.Execute([]byte("payload")))
	require.NoError(t, et.End())

	assert.Equal(t, 1, calls)
	assert.Equal(t, []byte("payload"), gotArg)
}

func TestExecuteRejectsNonExecutableResource(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(1, 0.0)))

	_, err := BeginExecute(reg, ResourcePath(3303, 0, 5700))
	require.Error(t, err)
	assert.Equal(t, KindMethodNotAllowed, KindOf(err))
}

func TestExecuteRejectsWrongDepth(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(1, 0.0)))

	_, err := BeginExecute(reg, InstancePath(3303, 0))
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, KindOf(err))
}
