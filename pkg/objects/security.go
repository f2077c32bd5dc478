// Package objects implements the well-known LwM2M Objects (Security,
// Server, Firmware Update) on top of pkg/sdm's generic Registry/Object
// machinery (spec §6, §7 "well-known Object contract").
package objects

import (
	"fmt"

	"github.com/lwm2m-go/sdm/pkg/sdm"
)

// Security Resource IDs not already known to pkg/sdm (which only cares
// about Bootstrap-Server, SSID, Server URI and the OSCORE link for its
// own cross-referencing).
const (
	RIDSecuritySecurityMode        uint16 = 2
	RIDSecurityPublicKeyOrIdentity uint16 = 3
	RIDSecurityServerPublicKey     uint16 = 4
	RIDSecuritySecretKey           uint16 = 5
)

// SecurityInstanceData is the plain-data view of one Security Object
// instance; Snapshot/Restore operate on copies of this.
type SecurityInstanceData struct {
	ServerURI           string
	BootstrapServer     bool
	SecurityMode        int64
	PublicKeyOrIdentity []byte
	ServerPublicKey     []byte
	SecretKey           []byte
	SSID                uint16
	OSCORE              sdm.ObjLnk
	HasOSCORE           bool
}

func (d SecurityInstanceData) clone() SecurityInstanceData {
	c := d
	c.PublicKeyOrIdentity = append([]byte(nil), d.PublicKeyOrIdentity...)
	c.ServerPublicKey = append([]byte(nil), d.ServerPublicKey...)
	c.SecretKey = append([]byte(nil), d.SecretKey...)
	return c
}

// Security wraps an *sdm.Object implementing the Security Object (oid
// 0). It keeps its instance data in a Go map rather than sdm.Resource
// value buffers so OperationBegin/OperationEnd can snapshot and roll
// back the whole instance set atomically (spec.md §3's "well-known-
// object scaffolding" rollback path).
type Security struct {
	Object *sdm.Object

	data     map[uint16]*SecurityInstanceData
	snapData map[uint16]*SecurityInstanceData
	snapInst []*sdm.Instance
}

// NewSecurity builds an empty Security Object with the given Instance
// capacity.
func NewSecurity(capacity uint16) *Security {
	s := &Security{data: make(map[uint16]*SecurityInstanceData)}
	s.Object = &sdm.Object{
		OID:      sdm.OIDSecurity,
		Version:  "1.1",
		Capacity: capacity,
		Handlers: sdm.ObjectHandlers{
			OperationBegin: s.operationBegin,
			OperationEnd:   s.operationEnd,
			InstCreate:     s.instCreate,
			InstDelete:     s.instDelete,
		},
	}
	return s
}

// AddInstance registers a Security instance at iid with initial data,
// outside of any transaction (used when building a fixture or loading
// persisted state).
func (s *Security) AddInstance(iid uint16, data SecurityInstanceData) {
	d := data.clone()
	s.data[iid] = &d
	s.Object.InsertInstance(s.buildInstance(iid))
}

// Restore replaces every instance with the snapshot loaded from
// pkg/persistence, outside of any transaction. Called once at startup
// before the registry is handed to the dispatch bridge.
func (s *Security) Restore(snap map[uint16]SecurityInstanceData) {
	for iid := range s.data {
		s.Object.RemoveInstance(iid)
	}
	s.data = make(map[uint16]*SecurityInstanceData, len(snap))
	for iid, data := range snap {
		s.AddInstance(iid, data)
	}
}

func (s *Security) buildInstance(iid uint16) *sdm.Instance {
	res := func(rid uint16, kind sdm.OperationKind, vt sdm.ValueType, read func(*SecurityInstanceData) sdm.Value, write func(*SecurityInstanceData, sdm.Value)) *sdm.Resource {
		r := sdm.NewSingleResource(sdm.ResourceSpec{RID: rid, Kind: kind, ValueType: vt}, sdm.Value{})
		r.Callbacks.Read = func(e sdm.EntityRef) (sdm.Value, error) {
			d, ok := s.data[iid]
			if !ok {
				return sdm.Value{}, sdm.NewError(sdm.KindInternal, e.Path, "security: instance %d vanished", iid)
			}
			return read(d), nil
		}
		if write != nil {
			r.Callbacks.Write = func(e sdm.EntityRef, v sdm.Value) error {
				d, ok := s.data[iid]
				if !ok {
					return sdm.NewError(sdm.KindInternal, e.Path, "security: instance %d vanished", iid)
				}
				write(d, v)
				return nil
			}
		}
		return r
	}

	return &sdm.Instance{IID: iid, Resources: []*sdm.Resource{
		res(sdm.RIDSecurityServerURI, sdm.OpW, sdm.TypeString,
			func(d *SecurityInstanceData) sdm.Value { return sdm.StringValue(d.ServerURI) },
			func(d *SecurityInstanceData, v sdm.Value) { d.ServerURI = v.AsString() }),
		res(sdm.RIDSecurityBootstrapServer, sdm.OpW, sdm.TypeBool,
			func(d *SecurityInstanceData) sdm.Value { return sdm.BoolValue(d.BootstrapServer) },
			func(d *SecurityInstanceData, v sdm.Value) { d.BootstrapServer = v.Bool }),
		res(RIDSecuritySecurityMode, sdm.OpW, sdm.TypeInt,
			func(d *SecurityInstanceData) sdm.Value { return sdm.IntValue(d.SecurityMode) },
			func(d *SecurityInstanceData, v sdm.Value) { d.SecurityMode = v.Int }),
		res(RIDSecurityPublicKeyOrIdentity, sdm.OpW, sdm.TypeBytes,
			func(d *SecurityInstanceData) sdm.Value { return sdm.BytesValue(d.PublicKeyOrIdentity) },
			func(d *SecurityInstanceData, v sdm.Value) { d.PublicKeyOrIdentity = v.Bytes.Data }),
		res(RIDSecurityServerPublicKey, sdm.OpW, sdm.TypeBytes,
			func(d *SecurityInstanceData) sdm.Value { return sdm.BytesValue(d.ServerPublicKey) },
			func(d *SecurityInstanceData, v sdm.Value) { d.ServerPublicKey = v.Bytes.Data }),
		res(RIDSecuritySecretKey, sdm.OpW, sdm.TypeBytes,
			func(d *SecurityInstanceData) sdm.Value { return sdm.BytesValue(d.SecretKey) },
			func(d *SecurityInstanceData, v sdm.Value) { d.SecretKey = v.Bytes.Data }),
		res(sdm.RIDSecuritySSID, sdm.OpBsRW, sdm.TypeInt,
			func(d *SecurityInstanceData) sdm.Value { return sdm.IntValue(int64(d.SSID)) },
			func(d *SecurityInstanceData, v sdm.Value) { d.SSID = uint16(v.Int) }),
		res(sdm.RIDSecurityOSCORE, sdm.OpBsRW, sdm.TypeObjLnk,
			func(d *SecurityInstanceData) sdm.Value {
				if !d.HasOSCORE {
					return sdm.ObjLnkValue(0xFFFF, 0xFFFF)
				}
				return sdm.ObjLnkValue(d.OSCORE.ObjectID, d.OSCORE.InstanceID)
			},
			func(d *SecurityInstanceData, v sdm.Value) { d.OSCORE = v.ObjLnk; d.HasOSCORE = true }),
	}}
}

func (s *Security) operationBegin(op sdm.Operation) error {
	s.snapData = make(map[uint16]*SecurityInstanceData, len(s.data))
	for iid, d := range s.data {
		clone := d.clone()
		s.snapData[iid] = &clone
	}
	s.snapInst = append([]*sdm.Instance(nil), s.Object.Instances...)
	return nil
}

func (s *Security) operationEnd(outcome sdm.Outcome) {
	if outcome == sdm.OutcomeFailure {
		s.data = s.snapData
		s.Object.Instances = s.snapInst
	}
	s.snapData = nil
	s.snapInst = nil
}

func (s *Security) instCreate(iid uint16) (uint16, error) {
	actual := iid
	if actual == sdm.InvalidID {
		free, ok := s.Object.SmallestFreeIID()
		if !ok {
			return 0, fmt.Errorf("security: no free instance id")
		}
		actual = free
	}
	s.data[actual] = &SecurityInstanceData{}
	s.Object.InsertInstance(s.buildInstance(actual))
	return actual, nil
}

func (s *Security) instDelete(iid uint16) error {
	delete(s.data, iid)
	s.Object.RemoveInstance(iid)
	return nil
}

// Snapshot renders every instance's data for persistence (pkg/persistence
// serializes this).
func (s *Security) Snapshot() map[uint16]SecurityInstanceData {
	out := make(map[uint16]SecurityInstanceData, len(s.data))
	for iid, d := range s.data {
		out[iid] = d.clone()
	}
	return out
}
