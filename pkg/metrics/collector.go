package metrics

import (
	"strconv"
	"time"

	"github.com/lwm2m-go/sdm/pkg/sdm"
)

// Collector polls a Registry on an interval and republishes its shape
// as gauges; the engine itself never imports prometheus.
type Collector struct {
	registry *sdm.Registry
	stopCh   chan struct{}
}

// NewCollector creates a new metrics collector for reg.
func NewCollector(reg *sdm.Registry) *Collector {
	return &Collector{
		registry: reg,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	objects := c.registry.Objects()
	RegistryObjectsTotal.Set(float64(len(objects)))

	RegistryInstancesTotal.Reset()
	for _, obj := range objects {
		label := strconv.FormatUint(uint64(obj.OID), 10)
		RegistryInstancesTotal.WithLabelValues(label).Set(float64(len(obj.Instances)))
	}
}
