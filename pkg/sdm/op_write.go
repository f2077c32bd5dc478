package sdm

// WriteEntry is one (path, type, value) record fed to a Write or
// Create transaction by the dispatcher. Type may be TypeNone to mean
// "ambiguous" (the wire format carried no type tag); the engine answers
// with the target Resource's declared type via ResolveType and the
// dispatcher re-feeds the same entry with Value.Type set accordingly.
type WriteEntry struct {
	Path  Path
	Value Value
}

// WriteTransaction drives Write-Replace and Write-Update (spec §4.4.4).
type WriteTransaction struct {
	tx          *transaction
	reg         *Registry
	basePath    Path
	isBootstrap bool
	isReplace   bool
}

// BeginWrite opens a Write transaction rooted at path, which must have
// depth >= OI. isReplace selects Write-Replace (wipes the target
// before ingestion) vs Write-Update (ingests in place).
func BeginWrite(reg *Registry, path Path, isReplace, isBootstrap bool) (*WriteTransaction, error) {
	if path.Depth() < DepthObjectInstance {
		return nil, NewError(KindBadRequest, path, "write: path depth must be >= OI")
	}

	op := OpWriteUpdate
	if isReplace {
		op = OpWriteReplace
	}
	tx, err := beginTransaction(reg, op, isBootstrap)
	if err != nil {
		return nil, err
	}

	ref, err := Locate(reg, path)
	if err != nil {
		tx.fail(err)
		tx.end()
		return nil, err
	}
	if tErr := tx.touch(ref.Object); tErr != nil {
		tx.fail(tErr)
		tx.end()
		return nil, tErr
	}

	if isReplace {
		if err := replaceWipe(ref); err != nil {
			tx.fail(err)
			tx.end()
			return nil, err
		}
	}

	return &WriteTransaction{tx: tx, reg: reg, basePath: path, isBootstrap: isBootstrap, isReplace: isReplace}, nil
}

func replaceWipe(ref EntityRef) error {
	switch ref.Path.Depth() {
	case DepthObjectInstance:
		if ref.Object.Handlers.InstReset != nil {
			return ref.Object.Handlers.InstReset(ref.Instance.IID)
		}
	case DepthResource:
		if ref.Resource.Spec.Kind.Multi() {
			return wipeMultiResource(ref)
		}
	}
	return nil
}

func wipeMultiResource(ref EntityRef) error {
	res := ref.Resource
	for _, ri := range append([]ResourceInstance(nil), res.instances...) {
		if res.Callbacks.InstDelete != nil {
			riidCopy := ri.RIID
			instRef := ref
			instRef.ResourceInstance = &ResourceInstance{RIID: riidCopy}
			instRef.resourceInstanceOK = true
			if err := res.Callbacks.InstDelete(instRef, riidCopy); err != nil {
				return WrapError(KindOf(err), ref.Path, err)
			}
		}
	}
	res.clearInstances()
	return nil
}

// ResolveType returns the declared ValueType of the Resource at path,
// used by the dispatcher to answer the codec's type-disambiguation
// request.
func (w *WriteTransaction) ResolveType(path Path) (ValueType, error) {
	ref, err := Locate(w.reg, path)
	if err != nil {
		return TypeNone, err
	}
	if ref.Resource == nil {
		return TypeNone, NewError(KindNotFound, path, "write: resolve-type on non-resource path")
	}
	return ref.Resource.Spec.ValueType, nil
}

// WriteEntry ingests one entry per spec §4.4.4 steps 1-6. entry.Value.Type
// must already be resolved (non-TypeNone) unless entry targets an
// executable-free placeholder, which is never valid for Write.
func (w *WriteTransaction) WriteEntry(entry WriteEntry) error {
	if err := applyWriteEntry(w.reg, w.tx, w.basePath, entry, w.isBootstrap); err != nil {
		w.tx.fail(err)
		return err
	}
	return nil
}

// End closes the transaction, validating and committing or rolling
// back per spec §4.3 (Write is transactional).
func (w *WriteTransaction) End() error { return w.tx.end() }

// applyWriteEntry is shared by Write and Create (spec §4.4.5 says Create's
// ingestion reuses write_entry once the target instance exists).
func applyWriteEntry(reg *Registry, tx *transaction, basePath Path, entry WriteEntry, isBootstrap bool) error {
	if !basePath.Contains(entry.Path) {
		return NewError(KindBadRequest, entry.Path, "write: entry path %s outside base path %s", entry.Path, basePath)
	}

	obj, objOK := reg.Find(entry.Path.ObjectID())
	if !objOK {
		return NewError(KindNotFound, entry.Path, "write: object %d not registered", entry.Path.ObjectID())
	}
	iid, _ := entry.Path.InstanceID()
	inst, instOK := obj.Instance(iid)
	if !instOK {
		return NewError(KindNotFound, entry.Path, "write: instance %d/%d not found", obj.OID, iid)
	}
	rid, _ := entry.Path.ResourceID()
	res, resOK := inst.Resource(rid)
	if !resOK {
		return NewError(KindMethodNotAllowed, entry.Path, "write: resource %d/%d/%d not defined", obj.OID, iid, rid)
	}

	if !res.Spec.Kind.Writable(isBootstrap) {
		return NewError(KindMethodNotAllowed, entry.Path, "write: resource %d/%d/%d not writable", obj.OID, iid, rid)
	}

	if !typeCompatible(res.Spec.ValueType, entry.Value.Type, isBootstrap) {
		return NewError(KindBadRequest, entry.Path, "write: type mismatch on %d/%d/%d: want %s got %s", obj.OID, iid, rid, res.Spec.ValueType, entry.Value.Type)
	}

	ref := EntityRef{Path: entry.Path, Object: obj, Instance: inst, Resource: res}

	if res.Spec.Kind.Multi() {
		riid, hasRIID := entry.Path.ResourceInstanceID()
		if !hasRIID {
			return NewError(KindBadRequest, entry.Path, "write: multi-resource entry missing resource-instance id")
		}
		idx, found := res.findInstance(riid)
		if !found {
			if res.Callbacks.InstCreate != nil {
				if err := res.Callbacks.InstCreate(ref, riid); err != nil {
					return WrapError(KindOf(err), entry.Path, err)
				}
			}
			if err := res.insertInstance(riid, Value{}); err != nil {
				return err
			}
			idx, _ = res.findInstance(riid)
		}
		ref.ResourceInstance = &res.instances[idx]
		ref.resourceInstanceOK = true

		if res.Callbacks.Write != nil {
			if err := res.Callbacks.Write(ref, entry.Value); err != nil {
				return WrapError(KindOf(err), entry.Path, err)
			}
			return nil
		}
		merged, err := mergeValue(res.instances[idx].Value, entry.Value, res.bufCapacity, entry.Path)
		if err != nil {
			return err
		}
		res.instances[idx].Value = merged
		return nil
	}

	if res.Callbacks.Write != nil {
		if err := res.Callbacks.Write(ref, entry.Value); err != nil {
			return WrapError(KindOf(err), entry.Path, err)
		}
		return nil
	}
	merged, err := mergeValue(res.value, entry.Value, res.bufCapacity, entry.Path)
	if err != nil {
		return err
	}
	res.value = merged
	return nil
}

// typeCompatible implements spec §4.4.4 step 4, including the bootstrap
// exception allowing String->ExternalString and Bytes->ExternalBytes.
func typeCompatible(want, got ValueType, isBootstrap bool) bool {
	if want == got {
		return true
	}
	if !isBootstrap {
		return false
	}
	switch {
	case want == TypeExternalString && got == TypeString:
		return true
	case want == TypeExternalBytes && got == TypeBytes:
		return true
	default:
		return false
	}
}

// mergeValue stores entry into current, honoring Bytes/String chunk
// offset so streamed writes reassemble correctly, and enforcing
// bufCapacity (0 = unbounded).
func mergeValue(current, entry Value, bufCapacity int, path Path) (Value, error) {
	switch entry.Type {
	case TypeBytes:
		return mergeChunk(current, entry, true, bufCapacity, path)
	case TypeString:
		return mergeChunk(current, entry, false, bufCapacity, path)
	default:
		return entry, nil
	}
}

func mergeChunk(current, entry Value, isBytes bool, bufCapacity int, path Path) (Value, error) {
	var curChunk, newChunk Chunk
	if isBytes {
		curChunk, newChunk = current.Bytes, entry.Bytes
	} else {
		curChunk, newChunk = current.Str, entry.Str
	}

	end := int64(newChunk.Offset) + int64(len(newChunk.Data))
	if bufCapacity > 0 && end > int64(bufCapacity) {
		return Value{}, NewError(KindMemory, path, "write: chunk at offset %d exceeds resource buffer capacity %d", newChunk.Offset, bufCapacity)
	}

	data := curChunk.Data
	if int64(len(data)) < end {
		grown := make([]byte, end)
		copy(grown, data)
		data = grown
	}
	copy(data[newChunk.Offset:], newChunk.Data)

	merged := Chunk{Data: data, Offset: 0, FullLength: newChunk.FullLength}
	if isBytes {
		return BytesChunkValue(merged), nil
	}
	return StringChunkValue(merged), nil
}
