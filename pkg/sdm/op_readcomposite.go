package sdm

// ReadCompositeTransaction drives Read-Composite (spec §4.4.9): like
// Read, but the caller presents several base paths one at a time via
// NextBasePath, each resetting the sub-iterator and its own record
// counter. Read-Composite is transactional even though it never
// mutates anything, matching spec §4.3's explicit list.
type ReadCompositeTransaction struct {
	tx          *transaction
	isBootstrap bool
	reg         *Registry

	leaves []readLeaf
	idx    int
}

// BeginReadComposite opens a Read-Composite transaction with no base
// path loaded yet; call NextBasePath to load the first one.
func BeginReadComposite(reg *Registry, isBootstrap bool) (*ReadCompositeTransaction, error) {
	tx, err := beginTransaction(reg, OpReadComposite, isBootstrap)
	if err != nil {
		return nil, err
	}
	return &ReadCompositeTransaction{tx: tx, isBootstrap: isBootstrap, reg: reg}, nil
}

// NextBasePath loads path as the current base path, resetting the
// per-path record iterator. It returns the number of records this base
// path will emit.
func (r *ReadCompositeTransaction) NextBasePath(path Path) (int, error) {
	if r.isBootstrap {
		if path.Depth() >= DepthResource {
			err := NewError(KindBadRequest, path, "bootstrap read-composite: path depth must be < OIR")
			r.tx.fail(err)
			return 0, err
		}
		if path.Depth() >= DepthObject && path.ObjectID() != OIDServer && path.ObjectID() != OIDAccessControl {
			err := NewError(KindBadRequest, path, "bootstrap read-composite: object %d is not Server or Access-Control", path.ObjectID())
			r.tx.fail(err)
			return 0, err
		}
	}

	ref, err := Locate(r.reg, path)
	if err != nil {
		r.tx.fail(err)
		return 0, err
	}
	if ref.Object != nil {
		if tErr := r.tx.touch(ref.Object); tErr != nil {
			r.tx.fail(tErr)
			return 0, tErr
		}
	}

	var leaves []readLeaf
	switch path.Depth() {
	case DepthRoot:
		for _, obj := range r.reg.Objects() {
			gatherObjectReadable(obj, r.isBootstrap, &leaves)
		}
	case DepthObject:
		gatherObjectReadable(ref.Object, r.isBootstrap, &leaves)
	case DepthObjectInstance:
		gatherInstanceReadable(ref.Object.OID, ref.Instance, r.isBootstrap, &leaves)
	case DepthResource:
		gatherResourceReadable(ref.Object.OID, ref.Instance.IID, ref.Resource, r.isBootstrap, &leaves)
	case DepthResourceInstance:
		if ref.Resource.Spec.Kind.Readable(r.isBootstrap) && ref.HasResourceInstance() {
			riid := ref.ResourceInstance.RIID
			leaves = append(leaves, readLeaf{path: path, res: ref.Resource, riid: &riid})
		}
	}

	if len(leaves) == 0 {
		err := NewError(KindNotFound, path, "read-composite: no readable resource instances under %s", path)
		r.tx.fail(err)
		return 0, err
	}

	r.leaves = leaves
	r.idx = 0
	return len(leaves), nil
}

// NextRecord produces the next record for the currently loaded base
// path. Re-entry after RecordLast (for this base path) is Logic.
func (r *ReadCompositeTransaction) NextRecord() (ReadRecord, RecordStatus, error) {
	if r.idx >= len(r.leaves) {
		return ReadRecord{}, RecordLast, NewError(KindLogic, RootPath(), "read-composite: next_record called after last record of current base path")
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

// End closes the transaction. Read-Composite is transactional per spec
// §4.3, so any Object touched while resolving base paths has its
// OperationValidate called before commit.
func (r *ReadCompositeTransaction) End() error {
	return r.tx.end()
}
