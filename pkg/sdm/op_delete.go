package sdm

// DeleteTransaction drives Delete and Bootstrap-Delete (spec §4.4.6).
// Unlike Write/Create, Delete performs its work synchronously inside
// Begin: there is no streamed ingestion, so the only thing left for
// the caller to do is End.
type DeleteTransaction struct {
	tx *transaction
}

// BeginDelete opens and immediately executes a Delete. Non-bootstrap
// paths must be depth OI or OIRR. Bootstrap paths must be depth
// Root, O, or OI; wildcard deletes (Root or O) silently skip
// bootstrap instances, while a direct OI target that is a bootstrap
// instance is rejected with BadRequest. Device (oid 3) is never
// touched by a bootstrap wildcard delete.
func BeginDelete(reg *Registry, path Path, isBootstrap bool) (*DeleteTransaction, error) {
	tx, err := beginTransaction(reg, OpDelete, isBootstrap)
	if err != nil {
		return nil, err
	}

	var runErr error
	if isBootstrap {
		runErr = runBootstrapDelete(reg, tx, path)
	} else {
		runErr = runDelete(reg, tx, path)
	}
	if runErr != nil {
		tx.fail(runErr)
	}

	return &DeleteTransaction{tx: tx}, nil
}

func runDelete(reg *Registry, tx *transaction, path Path) error {
	if path.Depth() != DepthObjectInstance && path.Depth() != DepthResourceInstance {
		return NewError(KindBadRequest, path, "delete: path depth must be OI or OIRR")
	}

	ref, err := Locate(reg, path)
	if err != nil {
		return err
	}
	if err := tx.touch(ref.Object); err != nil {
		return err
	}

	if path.Depth() == DepthObjectInstance {
		if ref.Object.Handlers.InstDelete != nil {
			if err := ref.Object.Handlers.InstDelete(ref.Instance.IID); err != nil {
				return WrapError(KindOf(err), path, err)
			}
		}
		ref.Object.RemoveInstance(ref.Instance.IID)
		return nil
	}

	if !ref.Resource.Spec.Kind.Multi() {
		return NewError(KindMethodNotAllowed, path, "delete: resource %d/%d/%d is not multi-instance", ref.Object.OID, ref.Instance.IID, ref.Resource.Spec.RID)
	}
	riid, _ := path.ResourceInstanceID()
	if ref.Resource.Callbacks.InstDelete != nil {
		if err := ref.Resource.Callbacks.InstDelete(ref, riid); err != nil {
			return WrapError(KindOf(err), path, err)
		}
	}
	return ref.Resource.deleteInstance(riid)
}

func runBootstrapDelete(reg *Registry, tx *transaction, path Path) error {
	if path.Depth() > DepthObjectInstance {
		return NewError(KindBadRequest, path, "bootstrap-delete: path depth must be Root, O, or OI")
	}
	isDirect := path.Depth() == DepthObjectInstance

	var objs []*Object
	switch path.Depth() {
	case DepthRoot:
		objs = reg.Objects()
	default:
		obj, err := LocateObject(reg, path.ObjectID())
		if err != nil {
			return err
		}
		objs = []*Object{obj}
	}

	for _, obj := range objs {
		if obj.OID == OIDDevice {
			continue
		}
		if err := tx.touch(obj); err != nil {
			return err
		}

		var targets []*Instance
		if isDirect {
			iid, _ := path.InstanceID()
			inst, ok := obj.Instance(iid)
			if !ok {
				return NewError(KindNotFound, path, "bootstrap-delete: instance %d/%d not found", obj.OID, iid)
			}
			targets = []*Instance{inst}
		} else {
			targets = append([]*Instance(nil), obj.Instances...)
		}

		for _, inst := range targets {
			if isBootstrapInstance(reg, obj, inst) {
				if isDirect {
					return NewError(KindBadRequest, path, "bootstrap-delete: instance %d/%d is a bootstrap instance", obj.OID, inst.IID)
				}
				continue
			}
			if obj.Handlers.InstDelete != nil {
				if err := obj.Handlers.InstDelete(inst.IID); err != nil {
					return WrapError(KindOf(err), InstancePath(obj.OID, inst.IID), err)
				}
			}
			obj.RemoveInstance(inst.IID)
		}
	}
	return nil
}

// isBootstrapInstance reports whether inst is a Security-Object
// instance with Bootstrap-Server=true, or an OSCORE instance linked
// from such a Security instance (spec §4.4.6).
func isBootstrapInstance(reg *Registry, obj *Object, inst *Instance) bool {
	switch obj.OID {
	case OIDSecurity:
		bs, _ := readBoolResource(obj, inst.IID, RIDSecurityBootstrapServer)
		return bs
	case OIDOSCORE:
		secObj, ok := reg.Find(OIDSecurity)
		if !ok {
			return false
		}
		for _, secInst := range secObj.Instances {
			bs, _ := readBoolResource(secObj, secInst.IID, RIDSecurityBootstrapServer)
			if !bs {
				continue
			}
			link, ok := readObjLnkResource(secObj, secInst.IID, RIDSecurityOSCORE)
			if ok && link.ObjectID == obj.OID && link.InstanceID == inst.IID {
				return true
			}
		}
	}
	return false
}

// End closes the transaction. Delete is transactional per spec §4.3.
func (d *DeleteTransaction) End() error { return d.tx.end() }
