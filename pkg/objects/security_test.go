package objects

import (
	"testing"

	"github.com/lwm2m-go/sdm/pkg/sdm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityReadWriteRoundTrip(t *testing.T) {
	sec := NewSecurity(4)
	sec.AddInstance(0, SecurityInstanceData{ServerURI: "coap://bootstrap.example", BootstrapServer: true})

	reg := sdm.NewRegistry(4)
	require.NoError(t, reg.Register(sec.Object))

	wt, err := sdm.BeginWrite(reg, sdm.InstancePath(sdm.OIDSecurity, 0), false, true)
	require.NoError(t, err)
	require.NoError(t, wt.WriteEntry(sdm.WriteEntry{
		Path:  sdm.ResourcePath(sdm.OIDSecurity, 0, sdm.RIDSecuritySSID),
		Value: sdm.IntValue(42),
	}))
	require.NoError(t, wt.End())

	assert.Equal(t, uint16(42), sec.data[0].SSID)
}

func TestSecurityRollbackOnValidationFailure(t *testing.T) {
	sec := NewSecurity(4)
	sec.AddInstance(0, SecurityInstanceData{ServerURI: "coap://original"})

	reg := sdm.NewRegistry(4)
	require.NoError(t, reg.Register(sec.Object))

	badObj, _ := reg.Find(sdm.OIDSecurity)
	badObj.Handlers.OperationValidate = func() error {
		return sdm.NewError(sdm.KindBadRequest, sdm.RootPath(), "forced failure")
	}

	wt, err := sdm.BeginWrite(reg, sdm.InstancePath(sdm.OIDSecurity, 0), false, true)
	require.NoError(t, err)
	require.NoError(t, wt.WriteEntry(sdm.WriteEntry{
		Path:  sdm.ResourcePath(sdm.OIDSecurity, 0, 0),
		Value: sdm.StringValue("coap://changed"),
	}))
	err = wt.End()
	require.Error(t, err)

	assert.Equal(t, "coap://original", sec.data[0].ServerURI)
}
