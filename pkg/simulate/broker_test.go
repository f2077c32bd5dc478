package simulate

import (
	"testing"
	"time"

	"github.com/lwm2m-go/sdm/pkg/sdm"
	"github.com/lwm2m-go/sdm/pkg/sdmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerTickBroadcastsPendingNotification(t *testing.T) {
	fx := sdmtest.New()
	path := sdm.ResourcePath(sdmtest.OIDTemperature, 0, sdmtest.RIDSensorValue)

	t0 := time.Unix(1000, 0)
	_, err := sdm.Observe(fx.Registry, fx.Table, path, []byte("tok"), t0)
	require.NoError(t, err)
	pmin := time.Duration(0)
	require.NoError(t, sdm.WriteAttributes(fx.Registry, fx.Table, path, sdm.Attributes{PMin: &pmin}))

	wt, err := sdm.BeginWrite(fx.Registry, sdm.InstancePath(sdmtest.OIDTemperature, 0), false, false)
	require.NoError(t, err)
	require.NoError(t, wt.WriteEntry(sdm.WriteEntry{Path: path, Value: sdm.DoubleValue(99.9)}))
	require.NoError(t, wt.End())

	b := NewBroker(fx.Registry, fx.Table, time.Hour)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	require.NoError(t, b.Tick(t0.Add(time.Second)))

	select {
	case n := <-sub:
		assert.Equal(t, []byte("tok"), n.Token)
		assert.Equal(t, 99.9, n.Value.Double)
	default:
		t.Fatal("expected a notification on the subscriber channel")
	}
}

func TestBrokerSubscriberCount(t *testing.T) {
	fx := sdmtest.New()
	b := NewBroker(fx.Registry, fx.Table, time.Hour)

	assert.Equal(t, 0, b.SubscriberCount())
	sub := b.Subscribe()
	assert.Equal(t, 1, b.SubscriberCount())
	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBrokerStartStop(t *testing.T) {
	fx := sdmtest.New()
	b := NewBroker(fx.Registry, fx.Table, time.Millisecond)
	b.Start()
	time.Sleep(5 * time.Millisecond)
	b.Stop()
}
