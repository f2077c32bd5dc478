package sdm

// EntityRef is the result of resolving a Path against a Registry: the
// Object, Instance, Resource, and Resource-Instance pointers for every
// component the path's Depth reaches. Fields past the path's depth are
// nil/zero.
type EntityRef struct {
	Path Path

	Object   *Object
	Instance *Instance
	Resource *Resource

	ResourceInstance   *ResourceInstance
	resourceInstanceOK bool
}

// HasResourceInstance reports whether ResourceInstance is populated.
func (e EntityRef) HasResourceInstance() bool { return e.resourceInstanceOK }

// Locate resolves path against reg, failing with KindNotFound at the
// first missing component. The returned EntityRef is populated up to
// (and including) path.Depth().
func Locate(reg *Registry, path Path) (EntityRef, error) {
	ref := EntityRef{Path: path}

	if path.Depth() == DepthRoot {
		return ref, nil
	}

	obj, ok := reg.Find(path.ObjectID())
	if !ok {
		return ref, NewError(KindNotFound, path, "object %d not registered", path.ObjectID())
	}
	ref.Object = obj
	if path.Depth() == DepthObject {
		return ref, nil
	}

	iid, _ := path.InstanceID()
	inst, ok := obj.Instance(iid)
	if !ok {
		return ref, NewError(KindNotFound, path, "instance %d/%d not found", obj.OID, iid)
	}
	ref.Instance = inst
	if path.Depth() == DepthObjectInstance {
		return ref, nil
	}

	rid, _ := path.ResourceID()
	res, ok := inst.Resource(rid)
	if !ok {
		return ref, NewError(KindNotFound, path, "resource %d/%d/%d not found", obj.OID, iid, rid)
	}
	ref.Resource = res
	if path.Depth() == DepthResource {
		return ref, nil
	}

	riid, _ := path.ResourceInstanceID()
	idx, ok := res.findInstance(riid)
	if !ok {
		return ref, NewError(KindNotFound, path, "resource-instance %d/%d/%d/%d not found", obj.OID, iid, rid, riid)
	}
	ref.ResourceInstance = &res.instances[idx]
	ref.resourceInstanceOK = true
	return ref, nil
}

// LocateObject is a narrow helper for callers (Create,
// Bootstrap-Delete) that only ever need the Object, returning the same
// KindNotFound error Locate would.
func LocateObject(reg *Registry, oid uint16) (*Object, error) {
	obj, ok := reg.Find(oid)
	if !ok {
		return nil, NewError(KindNotFound, ObjectPath(oid), "object %d not registered", oid)
	}
	return obj, nil
}
