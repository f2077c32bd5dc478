package sdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterExcludesSecurityAndOSCORE(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newSecurityObject(true)))
	require.NoError(t, reg.Register(&Object{OID: OIDOSCORE, Capacity: 1, Instances: []*Instance{{IID: 0}}}))
	require.NoError(t, reg.Register(newTemperatureObject(2, 0.0, 2.0)))

	rt, err := BeginRegister(reg)
	require.NoError(t, err)
	require.Equal(t, 3, rt.TotalCount())

	wantPaths := []Path{ObjectPath(3303), InstancePath(3303, 0), InstancePath(3303, 1)}
	for _, want := range wantPaths {
		rec, _, err := rt.NextRecord()
		require.NoError(t, err)
		assert.Equal(t, want, rec.Path)
	}
	require.NoError(t, rt.End())
}
