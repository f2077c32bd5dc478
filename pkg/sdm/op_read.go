package sdm

// RecordStatus tells a C6 caller whether more records remain after the
// one just produced (spec §4.4 "common output contract").
type RecordStatus int

const (
	RecordMore RecordStatus = iota
	RecordLast
)

// ReadRecord is one (path, value) pair produced by a Read or
// Read-Composite operation.
type ReadRecord struct {
	Path  Path
	Value Value
}

type readLeaf struct {
	path Path
	res  *Resource
	riid *uint16
}

// ReadTransaction drives a single Read from Begin through NextRecord to End.
type ReadTransaction struct {
	tx     *transaction
	leaves []readLeaf
	idx    int
}

// TotalCount is the number of records this Read will emit in total,
// fixed at Begin time (spec §4.4.1 "total_op_count").
func (r *ReadTransaction) TotalCount() int { return len(r.leaves) }

// BeginRead opens a Read transaction rooted at path. During bootstrap,
// only paths of depth <= OI and whose Object-ID (if present) is Server
// or Access-Control are accepted; a Read that resolves to zero readable
// resource instances is NotFound.
func BeginRead(reg *Registry, path Path, isBootstrap bool) (*ReadTransaction, error) {
	if isBootstrap {
		if path.Depth() >= DepthResource {
			return nil, NewError(KindBadRequest, path, "bootstrap read: path depth must be < OIR")
		}
		if path.Depth() >= DepthObject && path.ObjectID() != OIDServer && path.ObjectID() != OIDAccessControl {
			return nil, NewError(KindBadRequest, path, "bootstrap read: object %d is not Server or Access-Control", path.ObjectID())
		}
	}

	tx, err := beginTransaction(reg, OpRead, isBootstrap)
	if err != nil {
		return nil, err
	}

	ref, err := Locate(reg, path)
	if err != nil {
		tx.fail(err)
		tx.end()
		return nil, err
	}

	var leaves []readLeaf
	switch path.Depth() {
	case DepthRoot:
		for _, obj := range reg.Objects() {
			gatherObjectReadable(obj, isBootstrap, &leaves)
		}
	case DepthObject:
		gatherObjectReadable(ref.Object, isBootstrap, &leaves)
	case DepthObjectInstance:
		gatherInstanceReadable(ref.Object.OID, ref.Instance, isBootstrap, &leaves)
	case DepthResource:
		gatherResourceReadable(ref.Object.OID, ref.Instance.IID, ref.Resource, isBootstrap, &leaves)
	case DepthResourceInstance:
		if ref.Resource.Spec.Kind.Readable(isBootstrap) && ref.HasResourceInstance() {
			riid := ref.ResourceInstance.RIID
			leaves = append(leaves, readLeaf{path: path, res: ref.Resource, riid: &riid})
		}
	}

	if len(leaves) == 0 {
		err := NewError(KindNotFound, path, "read: no readable resource instances under %s", path)
		tx.fail(err)
		tx.end()
		return nil, err
	}

	return &ReadTransaction{tx: tx, leaves: leaves}, nil
}

func gatherObjectReadable(obj *Object, isBootstrap bool, leaves *[]readLeaf) {
	for _, inst := range obj.Instances {
		gatherInstanceReadable(obj.OID, inst, isBootstrap, leaves)
	}
}

func gatherInstanceReadable(oid uint16, inst *Instance, isBootstrap bool, leaves *[]readLeaf) {
	for _, res := range inst.Resources {
		gatherResourceReadable(oid, inst.IID, res, isBootstrap, leaves)
	}
}

func gatherResourceReadable(oid, iid uint16, res *Resource, isBootstrap bool, leaves *[]readLeaf) {
	if !res.Spec.Kind.Readable(isBootstrap) {
		return
	}
	if res.Spec.Kind.Multi() {
		for i := range res.instances {
			riid := res.instances[i].RIID
			*leaves = append(*leaves, readLeaf{
				path: ResourceInstancePath(oid, iid, res.Spec.RID, riid),
				res:  res,
				riid: &riid,
			})
		}
		return
	}
	*leaves = append(*leaves, readLeaf{path: ResourcePath(oid, iid, res.Spec.RID), res: res})
}

func resolveLeafValue(leaf readLeaf) (Value, error) {
	ref := EntityRef{Path: leaf.path, Resource: leaf.res}
	if leaf.riid != nil {
		idx, ok := leaf.res.findInstance(*leaf.riid)
		if !ok {
			return Value{}, NewError(KindNotFound, leaf.path, "resource-instance vanished mid-read")
		}
		ref.ResourceInstance = &leaf.res.instances[idx]
		ref.resourceInstanceOK = true
	}
	if leaf.res.Callbacks.Read != nil {
		v, err := leaf.res.Callbacks.Read(ref)
		if err != nil {
			return Value{}, WrapError(KindOf(err), leaf.path, err)
		}
		return v, nil
	}
	if leaf.riid != nil {
		return ref.ResourceInstance.Value, nil
	}
	return leaf.res.value, nil
}

// NextRecord produces the next (path, value) pair. Re-entry after
// RecordLast is Logic.
func (r *ReadTransaction) NextRecord() (ReadRecord, RecordStatus, error) {
	if r.idx >= len(r.leaves) {
		return ReadRecord{}, RecordLast, NewError(KindLogic, RootPath(), "read: next_record called after last record")
	}
	leaf := r.leaves[r.idx]
	v, err := resolveLeafValue(leaf)
	if err != nil {
		r.tx.fail(err)
		return ReadRecord{}, RecordLast, err
	}
	r.idx++
	status := RecordMore
	if r.idx == len(r.leaves) {
		status = RecordLast
	}
	return ReadRecord{Path: leaf.path, Value: v}, status, nil
}

// End closes the transaction. Read is non-transactional: it never
// calls OperationValidate and always reports the outcome the per-record
// reads actually produced.
func (r *ReadTransaction) End() error {
	return r.tx.end()
}
