package objects

import "github.com/lwm2m-go/sdm/pkg/sdm"

// Firmware Update Object Resource IDs (oid 5).
const (
	RIDFirmwarePackage         uint16 = 0
	RIDFirmwarePackageURI      uint16 = 1
	RIDFirmwareUpdate          uint16 = 2
	RIDFirmwareState           uint16 = 3
	RIDFirmwareUpdateResult    uint16 = 5
	RIDFirmwarePkgName         uint16 = 6
	RIDFirmwarePkgVersion      uint16 = 7
	RIDFirmwareProtocolSupport uint16 = 8
	RIDFirmwareDeliveryMethod  uint16 = 9
)

// FwState is the Firmware Update state machine (spec.md §6:
// Idle->Downloading->Downloaded->Updating->Idle).
type FwState int

const (
	FwIdle FwState = iota
	FwDownloading
	FwDownloaded
	FwUpdating
)

func (s FwState) String() string {
	switch s {
	case FwIdle:
		return "idle"
	case FwDownloading:
		return "downloading"
	case FwDownloaded:
		return "downloaded"
	case FwUpdating:
		return "updating"
	default:
		return "unknown"
	}
}

// Firmware Update Result codes (subset of the LwM2M registry; only the
// values this state machine itself produces).
const (
	FwResultInitial      int64 = 0
	FwResultSuccess      int64 = 1
	FwResultNoStorage    int64 = 2
	FwResultUpdateFailed int64 = 9
)

// PackageSink receives streamed firmware package bytes. The actual
// storage/flash mechanism is out of scope (spec.md §1): this object
// only sequences state and hands bytes to the caller-supplied sink.
type PackageSink interface {
	WriteChunk(data []byte, offset uint32) error
	Finish() error
}

// FirmwareInstanceData is the plain-data view of one Firmware Update instance.
type FirmwareInstanceData struct {
	State           FwState
	UpdateResult    int64
	PackageURI      string
	PkgName         string
	PkgVersion      string
	ProtocolSupport []int64
	DeliveryMethod  int64
}

// Firmware wraps an *sdm.Object implementing the Firmware Update
// Object (oid 5). Exactly one instance (iid 0) is expected, matching
// the LwM2M specification's single-instance convention for this
// Object, but the type does not itself enforce that.
type Firmware struct {
	Object *sdm.Object

	data map[uint16]*FirmwareInstanceData
	sink map[uint16]PackageSink

	// UpdateFunc performs the actual firmware swap when the Update
	// Resource is executed; nil means "always succeeds immediately".
	UpdateFunc func(iid uint16) error
}

// NewFirmware builds an empty Firmware Update Object.
func NewFirmware(capacity uint16) *Firmware {
	f := &Firmware{data: make(map[uint16]*FirmwareInstanceData), sink: make(map[uint16]PackageSink)}
	f.Object = &sdm.Object{
		OID:      sdm.OIDFirmware,
		Version:  "1.0",
		Capacity: capacity,
		Handlers: sdm.ObjectHandlers{
			InstCreate: f.instCreate,
			InstDelete: f.instDelete,
		},
	}
	return f
}

// AddInstance registers a Firmware Update instance at iid, with sink
// receiving the streamed Package resource's bytes.
func (f *Firmware) AddInstance(iid uint16, sink PackageSink) {
	f.data[iid] = &FirmwareInstanceData{ProtocolSupport: []int64{0}} // 0 = CoAP
	f.sink[iid] = sink
	f.Object.InsertInstance(f.buildInstance(iid))
}

func (f *Firmware) buildInstance(iid uint16) *sdm.Instance {
	get := func() *FirmwareInstanceData { return f.data[iid] }

	pkg := sdm.NewSingleResource(sdm.ResourceSpec{RID: RIDFirmwarePackage, Kind: sdm.OpW, ValueType: sdm.TypeBytes}, sdm.Value{})
	pkg.Callbacks.Write = func(e sdm.EntityRef, v sdm.Value) error {
		d := get()
		if d.State == FwIdle {
			d.State = FwDownloading
		}
		sink := f.sink[iid]
		if sink != nil {
			if err := sink.WriteChunk(v.Bytes.Data, v.Bytes.Offset); err != nil {
				return err
			}
		}
		if v.Bytes.IsFinal() {
			if sink != nil {
				if err := sink.Finish(); err != nil {
					d.State = FwIdle
					d.UpdateResult = FwResultNoStorage
					return err
				}
			}
			d.State = FwDownloaded
			d.UpdateResult = FwResultInitial
		}
		return nil
	}

	pkgURI := sdm.NewSingleResource(sdm.ResourceSpec{RID: RIDFirmwarePackageURI, Kind: sdm.OpW, ValueType: sdm.TypeString}, sdm.Value{})
	pkgURI.Callbacks.Write = func(e sdm.EntityRef, v sdm.Value) error {
		d := get()
		d.PackageURI = v.AsString()
		d.State = FwDownloaded
		d.UpdateResult = FwResultInitial
		return nil
	}

	update := sdm.NewExecutableResource(RIDFirmwareUpdate, func(e sdm.EntityRef, arg []byte) error {
		d := get()
		if d.State != FwDownloaded {
			return sdm.NewError(sdm.KindMethodNotAllowed, e.Path, "firmware: update executed while in state %s", d.State)
		}
		d.State = FwUpdating
		var err error
		if f.UpdateFunc != nil {
			err = f.UpdateFunc(iid)
		}
		if err != nil {
			d.UpdateResult = FwResultUpdateFailed
		} else {
			d.UpdateResult = FwResultSuccess
		}
		d.State = FwIdle
		return err
	})

	state := sdm.NewSingleResource(sdm.ResourceSpec{RID: RIDFirmwareState, Kind: sdm.OpR, ValueType: sdm.TypeInt}, sdm.Value{})
	state.Callbacks.Read = func(e sdm.EntityRef) (sdm.Value, error) { return sdm.IntValue(int64(get().State)), nil }

	result := sdm.NewSingleResource(sdm.ResourceSpec{RID: RIDFirmwareUpdateResult, Kind: sdm.OpR, ValueType: sdm.TypeInt}, sdm.Value{})
	result.Callbacks.Read = func(e sdm.EntityRef) (sdm.Value, error) { return sdm.IntValue(get().UpdateResult), nil }

	pkgName := sdm.NewSingleResource(sdm.ResourceSpec{RID: RIDFirmwarePkgName, Kind: sdm.OpR, ValueType: sdm.TypeString}, sdm.Value{})
	pkgName.Callbacks.Read = func(e sdm.EntityRef) (sdm.Value, error) { return sdm.StringValue(get().PkgName), nil }

	pkgVersion := sdm.NewSingleResource(sdm.ResourceSpec{RID: RIDFirmwarePkgVersion, Kind: sdm.OpR, ValueType: sdm.TypeString}, sdm.Value{})
	pkgVersion.Callbacks.Read = func(e sdm.EntityRef) (sdm.Value, error) { return sdm.StringValue(get().PkgVersion), nil }

	protocolSupport := sdm.NewMultiResource(sdm.ResourceSpec{RID: RIDFirmwareProtocolSupport, Kind: sdm.OpRm, ValueType: sdm.TypeInt}, 8)
	for riid, proto := range get().ProtocolSupport {
		_ = protocolSupport.AddResourceInstance(uint16(riid), sdm.IntValue(proto))
	}

	deliveryMethod := sdm.NewSingleResource(sdm.ResourceSpec{RID: RIDFirmwareDeliveryMethod, Kind: sdm.OpR, ValueType: sdm.TypeInt}, sdm.Value{})
	deliveryMethod.Callbacks.Read = func(e sdm.EntityRef) (sdm.Value, error) { return sdm.IntValue(get().DeliveryMethod), nil }

	return &sdm.Instance{IID: iid, Resources: []*sdm.Resource{
		pkg, pkgURI, update, state, result, pkgName, pkgVersion, protocolSupport, deliveryMethod,
	}}
}

func (f *Firmware) instCreate(iid uint16) (uint16, error) {
	actual := iid
	if actual == sdm.InvalidID {
		free, ok := f.Object.SmallestFreeIID()
		if !ok {
			return 0, sdm.NewError(sdm.KindMemory, sdm.ObjectPath(sdm.OIDFirmware), "firmware: no free instance id")
		}
		actual = free
	}
	f.data[actual] = &FirmwareInstanceData{ProtocolSupport: []int64{0}}
	f.Object.InsertInstance(f.buildInstance(actual))
	return actual, nil
}

func (f *Firmware) instDelete(iid uint16) error {
	delete(f.data, iid)
	delete(f.sink, iid)
	f.Object.RemoveInstance(iid)
	return nil
}
