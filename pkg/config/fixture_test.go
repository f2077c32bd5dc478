package config

import (
	"testing"

	"github.com/lwm2m-go/sdm/pkg/sdm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFixtureAndBuildRegistry(t *testing.T) {
	path := writeFile(t, `
apiVersion: sdm/v1
kind: Fixture
metadata:
  name: temperature-sensor
spec:
  objects:
    - oid: 3303
      version: "1.1"
      capacity: 4
      instances:
        - iid: 0
          resources:
            - rid: 5700
              kind: R
              type: double
              value: 21.5
            - rid: 5605
              kind: E
`)

	fx, err := LoadFixture(path)
	require.NoError(t, err)

	reg, err := BuildRegistry(fx, DefaultEngineConfig())
	require.NoError(t, err)

	rt, err := sdm.BeginRead(reg, sdm.ResourcePath(3303, 0, 5700), false)
	require.NoError(t, err)
	rec, _, err := rt.NextRecord()
	require.NoError(t, err)
	assert.Equal(t, 21.5, rec.Value.Double)
	require.NoError(t, rt.End())
}

func TestBuildRegistryRejectsUnknownKind(t *testing.T) {
	fx := Fixture{Objects: []FixtureObject{{
		OID: 1, Instances: []FixtureInstance{{
			IID: 0, Resources: []FixtureResource{{RID: 1, Kind: "bogus"}},
		}},
	}}}

	_, err := BuildRegistry(fx, DefaultEngineConfig())
	assert.Error(t, err)
}
