package metrics

import (
	"testing"

	"github.com/lwm2m-go/sdm/pkg/sdmtest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCollectPopulatesGauges(t *testing.T) {
	fx := sdmtest.New()
	c := NewCollector(fx.Registry)

	c.collect()

	assert.Equal(t, float64(len(fx.Registry.Objects())), testutil.ToFloat64(RegistryObjectsTotal))
}
