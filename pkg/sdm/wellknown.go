package sdm

// Well-known Object IDs the engine itself has to reason about: Bootstrap-
// Discover's ssid/uri cross-referencing, Register's Security/OSCORE
// exclusion, and Bootstrap-Delete's bootstrap-instance skip all need to
// recognize these regardless of which concrete Object implementation is
// registered (spec §6 "Well-known Object contract").
const (
	OIDSecurity      uint16 = 0
	OIDServer        uint16 = 1
	OIDAccessControl uint16 = 2
	OIDDevice        uint16 = 3
	OIDFirmware      uint16 = 5
	OIDOSCORE        uint16 = 21
)

// Resource IDs the engine cross-references by number rather than through
// a Resource callback, because Bootstrap-Discover and Bootstrap-Delete
// need their values without going through a full Read operation.
const (
	RIDSecurityBootstrapServer uint16 = 1  // bool
	RIDSecurityServerURI       uint16 = 0  // string
	RIDSecurityOSCORE          uint16 = 17 // objlnk, only meaningful oid 21 -> 0
	RIDSecuritySSID            uint16 = 10 // int
	RIDServerSSID              uint16 = 0  // int
)

// readUintResource reads a stored or callback-backed uint/int Resource
// at instance iid of Object obj, used for the small cross-Object lookups
// Bootstrap-Discover performs. It returns ok=false if the resource or
// instance does not exist.
func readUintResource(obj *Object, iid, rid uint16) (uint64, bool) {
	inst, ok := obj.Instance(iid)
	if !ok {
		return 0, false
	}
	res, ok := inst.Resource(rid)
	if !ok {
		return 0, false
	}
	v := res.value
	if res.Callbacks.Read != nil {
		ref := EntityRef{Path: ResourcePath(obj.OID, iid, rid), Object: obj, Instance: inst, Resource: res}
		var err error
		v, err = res.Callbacks.Read(ref)
		if err != nil {
			return 0, false
		}
	}
	switch v.Type {
	case TypeUint:
		return v.Uint, true
	case TypeInt:
		return uint64(v.Int), true
	default:
		return 0, false
	}
}

func readBoolResource(obj *Object, iid, rid uint16) (bool, bool) {
	inst, ok := obj.Instance(iid)
	if !ok {
		return false, false
	}
	res, ok := inst.Resource(rid)
	if !ok {
		return false, false
	}
	v := res.value
	if res.Callbacks.Read != nil {
		ref := EntityRef{Path: ResourcePath(obj.OID, iid, rid), Object: obj, Instance: inst, Resource: res}
		var err error
		v, err = res.Callbacks.Read(ref)
		if err != nil {
			return false, false
		}
	}
	if v.Type != TypeBool {
		return false, false
	}
	return v.Bool, true
}

func readStringResource(obj *Object, iid, rid uint16) (string, bool) {
	inst, ok := obj.Instance(iid)
	if !ok {
		return "", false
	}
	res, ok := inst.Resource(rid)
	if !ok {
		return "", false
	}
	v := res.value
	if res.Callbacks.Read != nil {
		ref := EntityRef{Path: ResourcePath(obj.OID, iid, rid), Object: obj, Instance: inst, Resource: res}
		var err error
		v, err = res.Callbacks.Read(ref)
		if err != nil {
			return "", false
		}
	}
	if v.Type != TypeString {
		return "", false
	}
	return v.AsString(), true
}

func readObjLnkResource(obj *Object, iid, rid uint16) (ObjLnk, bool) {
	inst, ok := obj.Instance(iid)
	if !ok {
		return ObjLnk{}, false
	}
	res, ok := inst.Resource(rid)
	if !ok {
		return ObjLnk{}, false
	}
	v := res.value
	if res.Callbacks.Read != nil {
		ref := EntityRef{Path: ResourcePath(obj.OID, iid, rid), Object: obj, Instance: inst, Resource: res}
		var err error
		v, err = res.Callbacks.Read(ref)
		if err != nil {
			return ObjLnk{}, false
		}
	}
	if v.Type != TypeObjLnk {
		return ObjLnk{}, false
	}
	return v.ObjLnk, true
}
