package objects

import (
	"strings"

	"github.com/lwm2m-go/sdm/pkg/sdm"
)

// Server Object Resource IDs (oid 1).
const (
	RIDServerLifetime            uint16 = 1
	RIDServerDefaultMinPeriod    uint16 = 2
	RIDServerDefaultMaxPeriod    uint16 = 3
	RIDServerDisable             uint16 = 4
	RIDServerDisableTimeout      uint16 = 5
	RIDServerNotificationStoring uint16 = 6
	RIDServerBinding             uint16 = 7
	RIDServerRegUpdateTrigger    uint16 = 8
)

// validBindingLetters is the supported transport-binding alphabet
// (spec.md §6: "non-empty subset... no duplicates").
const validBindingLetters = "UTSNQ"

// ServerInstanceData is the plain-data view of one Server Object instance.
type ServerInstanceData struct {
	SSID                uint16
	Lifetime            int64
	DefaultMinPeriod    int64
	DefaultMaxPeriod    int64
	DisableTimeout      int64
	NotificationStoring bool
	Binding             string
}

func (d ServerInstanceData) clone() ServerInstanceData { return d }

// Server wraps an *sdm.Object implementing the Server Object (oid 1).
type Server struct {
	Object *sdm.Object

	data map[uint16]*ServerInstanceData

	// DisableFunc is invoked by the Disable executable Resource;
	// RegUpdateFunc by Registration Update Trigger. Either may be nil.
	DisableFunc   func(iid uint16) error
	RegUpdateFunc func(iid uint16) error
}

// NewServer builds an empty Server Object with the given Instance capacity.
func NewServer(capacity uint16) *Server {
	s := &Server{data: make(map[uint16]*ServerInstanceData)}
	s.Object = &sdm.Object{
		OID:      sdm.OIDServer,
		Version:  "1.1",
		Capacity: capacity,
		Handlers: sdm.ObjectHandlers{
			OperationValidate: s.operationValidate,
			InstCreate:        s.instCreate,
			InstDelete:        s.instDelete,
		},
	}
	return s
}

// AddInstance registers a Server instance at iid with initial data.
func (s *Server) AddInstance(iid uint16, data ServerInstanceData) {
	d := data.clone()
	s.data[iid] = &d
	s.Object.InsertInstance(s.buildInstance(iid))
}

func (s *Server) buildInstance(iid uint16) *sdm.Instance {
	get := func() *ServerInstanceData { return s.data[iid] }

	ssid := sdm.NewSingleResource(sdm.ResourceSpec{RID: sdm.RIDServerSSID, Kind: sdm.OpR, ValueType: sdm.TypeInt}, sdm.Value{})
	ssid.Callbacks.Read = func(e sdm.EntityRef) (sdm.Value, error) { return sdm.IntValue(int64(get().SSID)), nil }

	lifetime := sdm.NewSingleResource(sdm.ResourceSpec{RID: RIDServerLifetime, Kind: sdm.OpRW, ValueType: sdm.TypeInt}, sdm.Value{})
	lifetime.Callbacks.Read = func(e sdm.EntityRef) (sdm.Value, error) { return sdm.IntValue(get().Lifetime), nil }
	lifetime.Callbacks.Write = func(e sdm.EntityRef, v sdm.Value) error { get().Lifetime = v.Int; return nil }

	minPeriod := sdm.NewSingleResource(sdm.ResourceSpec{RID: RIDServerDefaultMinPeriod, Kind: sdm.OpRW, ValueType: sdm.TypeInt}, sdm.Value{})
	minPeriod.Callbacks.Read = func(e sdm.EntityRef) (sdm.Value, error) { return sdm.IntValue(get().DefaultMinPeriod), nil }
	minPeriod.Callbacks.Write = func(e sdm.EntityRef, v sdm.Value) error { get().DefaultMinPeriod = v.Int; return nil }

	maxPeriod := sdm.NewSingleResource(sdm.ResourceSpec{RID: RIDServerDefaultMaxPeriod, Kind: sdm.OpRW, ValueType: sdm.TypeInt}, sdm.Value{})
	maxPeriod.Callbacks.Read = func(e sdm.EntityRef) (sdm.Value, error) { return sdm.IntValue(get().DefaultMaxPeriod), nil }
	maxPeriod.Callbacks.Write = func(e sdm.EntityRef, v sdm.Value) error { get().DefaultMaxPeriod = v.Int; return nil }

	disable := sdm.NewExecutableResource(RIDServerDisable, func(e sdm.EntityRef, arg []byte) error {
		if s.DisableFunc == nil {
			return nil
		}
		return s.DisableFunc(iid)
	})

	disableTimeout := sdm.NewSingleResource(sdm.ResourceSpec{RID: RIDServerDisableTimeout, Kind: sdm.OpRW, ValueType: sdm.TypeInt}, sdm.Value{})
	disableTimeout.Callbacks.Read = func(e sdm.EntityRef) (sdm.Value, error) { return sdm.IntValue(get().DisableTimeout), nil }
	disableTimeout.Callbacks.Write = func(e sdm.EntityRef, v sdm.Value) error { get().DisableTimeout = v.Int; return nil }

	notifStoring := sdm.NewSingleResource(sdm.ResourceSpec{RID: RIDServerNotificationStoring, Kind: sdm.OpRW, ValueType: sdm.TypeBool}, sdm.Value{})
	notifStoring.Callbacks.Read = func(e sdm.EntityRef) (sdm.Value, error) { return sdm.BoolValue(get().NotificationStoring), nil }
	notifStoring.Callbacks.Write = func(e sdm.EntityRef, v sdm.Value) error { get().NotificationStoring = v.Bool; return nil }

	binding := sdm.NewSingleResource(sdm.ResourceSpec{RID: RIDServerBinding, Kind: sdm.OpRW, ValueType: sdm.TypeString}, sdm.Value{})
	binding.Callbacks.Read = func(e sdm.EntityRef) (sdm.Value, error) { return sdm.StringValue(get().Binding), nil }
	binding.Callbacks.Write = func(e sdm.EntityRef, v sdm.Value) error { get().Binding = v.AsString(); return nil }

	regUpdate := sdm.NewExecutableResource(RIDServerRegUpdateTrigger, func(e sdm.EntityRef, arg []byte) error {
		if s.RegUpdateFunc == nil {
			return nil
		}
		return s.RegUpdateFunc(iid)
	})

	return &sdm.Instance{IID: iid, Resources: []*sdm.Resource{
		ssid, lifetime, minPeriod, maxPeriod, disable, disableTimeout, notifStoring, binding, regUpdate,
	}}
}

// operationValidate rejects a Binding string containing a letter
// outside {U,T,S,N,Q} or a duplicate letter (spec.md §6).
func (s *Server) operationValidate() error {
	for iid, d := range s.data {
		if err := validateBinding(d.Binding); err != nil {
			return sdm.NewError(sdm.KindBadRequest, sdm.InstancePath(sdm.OIDServer, iid), "server: %v", err)
		}
	}
	return nil
}

func validateBinding(binding string) error {
	if binding == "" {
		return nil
	}
	seen := make(map[rune]bool, len(binding))
	for _, r := range binding {
		if !strings.ContainsRune(validBindingLetters, r) {
			return sdm.NewError(sdm.KindBadRequest, sdm.RootPath(), "binding %q contains unsupported letter %q", binding, r)
		}
		if seen[r] {
			return sdm.NewError(sdm.KindBadRequest, sdm.RootPath(), "binding %q has duplicate letter %q", binding, r)
		}
		seen[r] = true
	}
	return nil
}

func (s *Server) instCreate(iid uint16) (uint16, error) {
	actual := iid
	if actual == sdm.InvalidID {
		free, ok := s.Object.SmallestFreeIID()
		if !ok {
			return 0, sdm.NewError(sdm.KindMemory, sdm.ObjectPath(sdm.OIDServer), "server: no free instance id")
		}
		actual = free
	}
	s.data[actual] = &ServerInstanceData{}
	s.Object.InsertInstance(s.buildInstance(actual))
	return actual, nil
}

func (s *Server) instDelete(iid uint16) error {
	delete(s.data, iid)
	s.Object.RemoveInstance(iid)
	return nil
}
