// Package sdmtest builds a small fixture registry reused across this
// module's test suites: two Security instances (one bootstrap, one
// not), a Server instance, a Firmware Update Object with no instance,
// and a generic IPSO temperature sensor Object standing in for a
// concrete device Object the engine has no built-in knowledge of.
package sdmtest

import (
	"github.com/lwm2m-go/sdm/pkg/objects"
	"github.com/lwm2m-go/sdm/pkg/sdm"
)

// OIDTemperature is IPSO 3303 (Temperature), used by tests that need a
// plain readable/writable Resource without any well-known Object's
// validation or callback behavior attached.
const OIDTemperature uint16 = 3303

// RIDSensorValue is IPSO 5700 (Sensor Value), the Double Resource every
// IPSO sensor Object carries.
const RIDSensorValue uint16 = 5700

// Fixture bundles the registry plus handles to each wrapped Object so
// a test can drive its data directly (e.g. asserting Security's
// Snapshot after a bootstrap Write).
type Fixture struct {
	Registry    *sdm.Registry
	Table       *sdm.ObservationTable
	Security    *objects.Security
	Server      *objects.Server
	Firmware    *objects.Firmware
	Temperature *sdm.Object
}

// New builds a Fixture with the Objects described above, registered in well-known-Object order (Security, Server, Firmware,
// then the temperature sensor at a non-reserved OID).
func New() *Fixture {
	sec := objects.NewSecurity(4)
	sec.AddInstance(0, objects.SecurityInstanceData{
		ServerURI:       "coap://bootstrap.example",
		BootstrapServer: true,
	})
	sec.AddInstance(1, objects.SecurityInstanceData{
		ServerURI: "coap://server.example",
		SSID:      1,
	})

	srv := objects.NewServer(4)
	srv.AddInstance(0, objects.ServerInstanceData{SSID: 1, Lifetime: 3600, Binding: "U"})

	fw := objects.NewFirmware(1)

	temp := &sdm.Object{
		OID:      OIDTemperature,
		Version:  "1.1",
		Capacity: 4,
	}
	temp.InsertInstance(&sdm.Instance{
		IID: 0,
		Resources: []*sdm.Resource{
			sdm.NewSingleResource(sdm.ResourceSpec{RID: RIDSensorValue, Kind: sdm.OpRW, ValueType: sdm.TypeDouble}, sdm.DoubleValue(21.5)),
		},
	})

	reg := sdm.NewRegistry(16)
	for _, obj := range []*sdm.Object{sec.Object, srv.Object, fw.Object, temp} {
		if err := reg.Register(obj); err != nil {
			panic(err)
		}
	}

	return &Fixture{
		Registry:    reg,
		Table:       sdm.NewObservationTable(16),
		Security:    sec,
		Server:      srv,
		Firmware:    fw,
		Temperature: temp,
	}
}
