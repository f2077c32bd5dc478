package sdm

import "sort"

// OperationKind is the access mode a Resource-Spec declares.
type OperationKind int

const (
	OpR    OperationKind = iota // readable, single-instance
	OpW                         // writable, single-instance
	OpRW                        // readable+writable, single-instance
	OpRm                        // readable, multi-instance
	OpWm                        // writable, multi-instance
	OpRWm                       // readable+writable, multi-instance
	OpE                         // executable, no storage
	OpBsRW                      // readable+writable only during bootstrap
)

// Multi reports whether the operation kind denotes a multi-instance Resource.
func (k OperationKind) Multi() bool {
	return k == OpRm || k == OpWm || k == OpRWm
}

// Executable reports whether the Resource carries no storage and is invoked, not read/written.
func (k OperationKind) Executable() bool { return k == OpE }

// Readable reports whether a Read of this kind is allowed given the
// transaction's bootstrap mode (spec §4.4.1: "R, Rm, RW, RWm, plus
// BsRW when the transaction is a bootstrap read").
func (k OperationKind) Readable(bootstrap bool) bool {
	switch k {
	case OpR, OpRm, OpRW, OpRWm:
		return true
	case OpBsRW:
		return bootstrap
	default:
		return false
	}
}

// Writable reports whether a Write of this kind is allowed given the
// transaction's bootstrap mode (spec §4.4.4 step 3).
func (k OperationKind) Writable(bootstrap bool) bool {
	switch k {
	case OpW, OpWm, OpRW, OpRWm:
		return true
	case OpBsRW:
		return bootstrap
	default:
		return false
	}
}

// ResourceSpec is the immutable descriptor of a Resource.
type ResourceSpec struct {
	RID       uint16
	Kind      OperationKind
	ValueType ValueType
}

// ResourceInstance is one (riid, value) slot of a Multi-resource.
type ResourceInstance struct {
	RIID  uint16
	Value Value
}

// ResourceCallbacks lets an Object override default storage behavior.
// Any field left nil falls back to the Resource's own value/instance
// buffer. Read/Write/Execute receive the located EntityRef so a
// callback can tell which Instance/Resource-Instance it was invoked
// for.
type ResourceCallbacks struct {
	Read       func(e EntityRef) (Value, error)
	Write      func(e EntityRef, v Value) error
	Execute    func(e EntityRef, arg []byte) error
	InstCreate func(e EntityRef, riid uint16) error
	InstDelete func(e EntityRef, riid uint16) error
}

// Resource is either single-instance (storage in `value`) or
// multi-instance (storage in `instances`, ordered ascending by riid).
type Resource struct {
	Spec      ResourceSpec
	Callbacks ResourceCallbacks

	value     Value              // single-instance storage
	instances []ResourceInstance // multi-instance storage, sorted by RIID
	capacity  uint16             // multi-instance RIID-table capacity; unused for single-instance

	// bufCapacity bounds a Bytes/String resource's backing buffer in
	// bytes; 0 means unbounded. Only meaningful when ValueType is
	// TypeBytes or TypeString.
	bufCapacity int
}

// SetBufferCapacity bounds the byte length a Bytes/String Resource's
// value buffer may grow to; streamed writes that would exceed it fail
// with KindMemory (spec §4.4.4 step 6).
func (r *Resource) SetBufferCapacity(n int) *Resource {
	r.bufCapacity = n
	return r
}

// NewSingleResource builds a non-multi Resource with owned storage
// initialized to initial.
func NewSingleResource(spec ResourceSpec, initial Value) *Resource {
	return &Resource{Spec: spec, value: initial}
}

// NewMultiResource builds a multi-instance Resource with the given
// Resource-Instance capacity (must be < InvalidID, invariant 7).
func NewMultiResource(spec ResourceSpec, capacity uint16) *Resource {
	return &Resource{Spec: spec, capacity: capacity}
}

// NewExecutableResource builds a Resource with no storage at all.
func NewExecutableResource(rid uint16, cb func(e EntityRef, arg []byte) error) *Resource {
	return &Resource{
		Spec:      ResourceSpec{RID: rid, Kind: OpE, ValueType: TypeNone},
		Callbacks: ResourceCallbacks{Execute: cb},
	}
}

// AddResourceInstance inserts a Resource-Instance at riid into a
// multi-instance Resource, keeping the table sorted by riid. Used by
// pkg/objects to seed a Multi-resource's initial contents outside of
// any Write.
func (r *Resource) AddResourceInstance(riid uint16, v Value) error {
	return r.insertInstance(riid, v)
}

// InstanceCount returns the number of Resource-Instances of a
// multi-instance Resource (0 for single-instance resources).
func (r *Resource) InstanceCount() int { return len(r.instances) }

// Instances returns the Resource-Instances in ascending RIID order.
// The returned slice must not be mutated by the caller.
func (r *Resource) Instances() []ResourceInstance { return r.instances }

func (r *Resource) findInstance(riid uint16) (int, bool) {
	idx := sort.Search(len(r.instances), func(i int) bool { return r.instances[i].RIID >= riid })
	if idx < len(r.instances) && r.instances[idx].RIID == riid {
		return idx, true
	}
	return idx, false
}

func (r *Resource) insertInstance(riid uint16, v Value) error {
	if _, ok := r.findInstance(riid); ok {
		return NewError(KindBadRequest, Path{}, "resource-instance %d already exists", riid)
	}
	if len(r.instances) >= 0xFFFE {
		return NewError(KindMemory, Path{}, "resource-instance table full")
	}
	idx, _ := r.findInstance(riid)
	r.instances = append(r.instances, ResourceInstance{})
	copy(r.instances[idx+1:], r.instances[idx:])
	r.instances[idx] = ResourceInstance{RIID: riid, Value: v}
	return nil
}

func (r *Resource) deleteInstance(riid uint16) error {
	idx, ok := r.findInstance(riid)
	if !ok {
		return NewError(KindNotFound, Path{}, "resource-instance %d not found", riid)
	}
	r.instances = append(r.instances[:idx], r.instances[idx+1:]...)
	return nil
}

func (r *Resource) clearInstances() { r.instances = nil }

// Instance is an ordered-by-rid list of Resources under one Object.
type Instance struct {
	IID           uint16
	Resources     []*Resource // sorted by RID
	inTransaction bool
}

func (i *Instance) findResource(rid uint16) (int, bool) {
	idx := sort.Search(len(i.Resources), func(j int) bool { return i.Resources[j].Spec.RID >= rid })
	if idx < len(i.Resources) && i.Resources[idx].Spec.RID == rid {
		return idx, true
	}
	return idx, false
}

// Resource returns the Resource with the given RID, if present.
func (i *Instance) Resource(rid uint16) (*Resource, bool) {
	idx, ok := i.findResource(rid)
	if !ok {
		return nil, false
	}
	return i.Resources[idx], true
}

// ObjectHandlers are the per-Object transactional callbacks (spec §3
// "Object" and §4.3). Any field may be nil.
type ObjectHandlers struct {
	// OperationBegin is called at most once per transaction, the first
	// time the transaction touches this Object.
	OperationBegin func(op Operation) error
	// OperationValidate runs during End, for transactional operations
	// only, after all steps succeeded.
	OperationValidate func() error
	// OperationEnd runs during End for every Object touched this
	// transaction, regardless of outcome; an Object wanting rollback
	// semantics snapshots its state in OperationBegin and restores it
	// here on OutcomeFailure.
	OperationEnd func(outcome Outcome)
	// InstCreate creates a new Instance. iid == InvalidID means "pick
	// the smallest free iid"; the handler returns the iid actually
	// used.
	InstCreate func(iid uint16) (uint16, error)
	InstDelete func(iid uint16) error
	InstReset  func(iid uint16) error
}

// Object is an ordered-by-iid list of Instances, plus the handlers
// that give it transactional behavior.
type Object struct {
	OID       uint16
	Version   string
	Instances []*Instance // sorted by IID
	Capacity  uint16
	Handlers  ObjectHandlers

	inTransaction bool
}

func (o *Object) findInstance(iid uint16) (int, bool) {
	idx := sort.Search(len(o.Instances), func(i int) bool { return o.Instances[i].IID >= iid })
	if idx < len(o.Instances) && o.Instances[idx].IID == iid {
		return idx, true
	}
	return idx, false
}

// Instance returns the Instance with the given IID, if present.
func (o *Object) Instance(iid uint16) (*Instance, bool) {
	idx, ok := o.findInstance(iid)
	if !ok {
		return nil, false
	}
	return o.Instances[idx], true
}

func (o *Object) insertInstance(inst *Instance) {
	idx, _ := o.findInstance(inst.IID)
	o.Instances = append(o.Instances, nil)
	copy(o.Instances[idx+1:], o.Instances[idx:])
	o.Instances[idx] = inst
}

func (o *Object) removeInstance(iid uint16) bool {
	idx, ok := o.findInstance(iid)
	if !ok {
		return false
	}
	o.Instances = append(o.Instances[:idx], o.Instances[idx+1:]...)
	return true
}

// InsertInstance links inst into the Object, keeping Instances sorted
// by iid. Used by an Object's own InstCreate handler, which builds the
// Instance's Resources itself (the engine has no schema knowledge of a
// concrete Object type) before calling this.
func (o *Object) InsertInstance(inst *Instance) { o.insertInstance(inst) }

// RemoveInstance unlinks the Instance with the given iid, reporting
// whether one was found. Used by an Object's own InstDelete handler.
func (o *Object) RemoveInstance(iid uint16) bool { return o.removeInstance(iid) }

// SmallestFreeIID exposes smallestFreeIID so an Object's InstCreate
// handler can resolve the InvalidID ("pick smallest free iid") sentinel.
func (o *Object) SmallestFreeIID() (uint16, bool) { return o.smallestFreeIID() }

// smallestFreeIID returns the smallest iid not currently in use,
// respecting Capacity; it returns (InvalidID, false) if the Object is
// full.
func (o *Object) smallestFreeIID() (uint16, bool) {
	var want uint16
	for _, inst := range o.Instances {
		if inst.IID != want {
			break
		}
		want++
	}
	if int(o.Capacity) <= len(o.Instances) {
		return InvalidID, false
	}
	return want, true
}

// validate rechecks invariants 1-7 (spec §3) for a single Object. The
// engine always rechecks, in place of the source project's
// debug-build-only assertions (Go has no separate release build).
func (o *Object) validate() error {
	if o.Capacity >= InvalidID {
		return NewError(KindInputArg, ObjectPath(o.OID), "object %d: capacity must be < 0xFFFF", o.OID)
	}
	if len(o.Instances) > int(o.Capacity) {
		return NewError(KindInputArg, ObjectPath(o.OID), "object %d: inst_count exceeds capacity", o.OID)
	}
	var lastIID uint16
	for idx, inst := range o.Instances {
		if inst.IID == InvalidID {
			return NewError(KindInputArg, ObjectPath(o.OID), "object %d: instance iid must not be 0xFFFF", o.OID)
		}
		if idx > 0 && inst.IID <= lastIID {
			return NewError(KindInputArg, ObjectPath(o.OID), "object %d: instances must be strictly ascending by iid", o.OID)
		}
		lastIID = inst.IID
		if err := inst.validate(o.OID); err != nil {
			return err
		}
	}
	return nil
}

func (i *Instance) validate(oid uint16) error {
	var lastRID uint16
	for idx, res := range i.Resources {
		if idx > 0 && res.Spec.RID <= lastRID {
			return NewError(KindInputArg, InstancePath(oid, i.IID), "instance: resources must be strictly ascending by rid")
		}
		lastRID = res.Spec.RID
		if err := res.validate(oid, i.IID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resource) validate(oid, iid uint16) error {
	path := ResourcePath(oid, iid, r.Spec.RID)
	if r.Spec.Kind.Executable() {
		if r.Spec.ValueType != TypeNone {
			return NewError(KindInputArg, path, "executable resource must declare value type none")
		}
		if r.Callbacks.Execute == nil {
			return NewError(KindInputArg, path, "executable resource has no execute callback")
		}
		return nil
	}
	if r.Spec.ValueType == TypeNone {
		return NewError(KindInputArg, path, "non-executable resource must declare a value type")
	}
	if r.Spec.Kind.Multi() {
		if r.capacity >= InvalidID {
			return NewError(KindInputArg, path, "multi-resource capacity must be < 0xFFFF")
		}
		if len(r.instances) > int(r.capacity) {
			return NewError(KindInputArg, path, "multi-resource instance count exceeds capacity")
		}
		var lastRIID uint16
		for idx, ri := range r.instances {
			if idx > 0 && ri.RIID <= lastRIID {
				return NewError(KindInputArg, path, "resource-instances must be strictly ascending by riid")
			}
			lastRIID = ri.RIID
		}
	}
	return nil
}

// Registry is the ordered-by-oid set of registered Objects.
type Registry struct {
	objects      []*Object // sorted by OID
	capacity     int
	opInProgress bool
}

// NewRegistry creates an empty registry able to hold up to capacity Objects.
func NewRegistry(capacity int) *Registry {
	return &Registry{capacity: capacity}
}

func (r *Registry) findObject(oid uint16) (int, bool) {
	idx := sort.Search(len(r.objects), func(i int) bool { return r.objects[i].OID >= oid })
	if idx < len(r.objects) && r.objects[idx].OID == oid {
		return idx, true
	}
	return idx, false
}

// Find returns the registered Object with the given OID, if any.
func (r *Registry) Find(oid uint16) (*Object, bool) {
	idx, ok := r.findObject(oid)
	if !ok {
		return nil, false
	}
	return r.objects[idx], true
}

// Objects returns the registered Objects in ascending-oid order. The
// returned slice must not be mutated by the caller.
func (r *Registry) Objects() []*Object { return r.objects }

// Register inserts obj into the registry, keeping it sorted by OID
// (invariant 1). It fails with KindLogic if obj is a duplicate OID or
// an operation is in progress, and KindMemory if the registry is full.
// obj is revalidated against invariants 1-7 before insertion.
func (r *Registry) Register(obj *Object) error {
	if r.opInProgress {
		return NewError(KindLogic, ObjectPath(obj.OID), "register: operation in progress")
	}
	if _, ok := r.findObject(obj.OID); ok {
		return NewError(KindLogic, ObjectPath(obj.OID), "register: duplicate object id %d", obj.OID)
	}
	if len(r.objects) >= r.capacity {
		return NewError(KindMemory, ObjectPath(obj.OID), "register: registry capacity exhausted")
	}
	if err := obj.validate(); err != nil {
		return err
	}
	idx, _ := r.findObject(obj.OID)
	r.objects = append(r.objects, nil)
	copy(r.objects[idx+1:], r.objects[idx:])
	r.objects[idx] = obj
	return nil
}

// Unregister removes the Object with the given OID. Fails with
// KindLogic if an operation is in progress or the OID is unknown.
func (r *Registry) Unregister(oid uint16) error {
	if r.opInProgress {
		return NewError(KindLogic, ObjectPath(oid), "unregister: operation in progress")
	}
	idx, ok := r.findObject(oid)
	if !ok {
		return NewError(KindLogic, ObjectPath(oid), "unregister: object %d not registered", oid)
	}
	r.objects = append(r.objects[:idx], r.objects[idx+1:]...)
	return nil
}
