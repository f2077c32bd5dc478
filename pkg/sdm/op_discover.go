package sdm

// DiscoverRecord is one record of a Discover or Bootstrap-Discover
// response. Version is non-empty only at Object depth; Dim is non-nil
// only at Resource depth for Multi-resources (Discover); SSID/URI are
// only ever set by Bootstrap-Discover.
type DiscoverRecord struct {
	Path    Path
	Version string
	Dim     *int

	SSID *uint16
	URI  string
}

type discoverLeaf struct {
	path    Path
	version string
	dim     *int
}

// DiscoverTransaction drives Discover (spec §4.4.2).
type DiscoverTransaction struct {
	tx     *transaction
	leaves []discoverLeaf
	idx    int
}

// BeginDiscover opens a Discover transaction. Depth must be >= O and != OIRR.
func BeginDiscover(reg *Registry, path Path) (*DiscoverTransaction, error) {
	if path.Depth() < DepthObject || path.Depth() == DepthResourceInstance {
		return nil, NewError(KindBadRequest, path, "discover: path depth must be O, OI, or OIR")
	}

	tx, err := beginTransaction(reg, OpDiscover, false)
	if err != nil {
		return nil, err
	}

	ref, err := Locate(reg, path)
	if err != nil {
		tx.fail(err)
		tx.end()
		return nil, err
	}

	var leaves []discoverLeaf
	switch path.Depth() {
	case DepthObject:
		leaves = append(leaves, discoverLeaf{path: path, version: ref.Object.Version})
		for _, inst := range ref.Object.Instances {
			appendDiscoverInstance(ref.Object.OID, inst, &leaves)
		}
	case DepthObjectInstance:
		appendDiscoverInstance(ref.Object.OID, ref.Instance, &leaves)
	case DepthResource:
		appendDiscoverResource(ref.Object.OID, ref.Instance.IID, ref.Resource, &leaves)
	}

	return &DiscoverTransaction{tx: tx, leaves: leaves}, nil
}

func appendDiscoverInstance(oid uint16, inst *Instance, leaves *[]discoverLeaf) {
	*leaves = append(*leaves, discoverLeaf{path: InstancePath(oid, inst.IID)})
	for _, res := range inst.Resources {
		appendDiscoverResource(oid, inst.IID, res, leaves)
	}
}

func appendDiscoverResource(oid, iid uint16, res *Resource, leaves *[]discoverLeaf) {
	path := ResourcePath(oid, iid, res.Spec.RID)
	if res.Spec.Kind.Multi() {
		dim := res.InstanceCount()
		*leaves = append(*leaves, discoverLeaf{path: path, dim: &dim})
		return
	}
	*leaves = append(*leaves, discoverLeaf{path: path})
}

// TotalCount is the number of records this Discover will emit.
func (d *DiscoverTransaction) TotalCount() int { return len(d.leaves) }

// NextRecord produces the next Discover record.
func (d *DiscoverTransaction) NextRecord() (DiscoverRecord, RecordStatus, error) {
	if d.idx >= len(d.leaves) {
		return DiscoverRecord{}, RecordLast, NewError(KindLogic, RootPath(), "discover: next_record called after last record")
	}
	leaf := d.leaves[d.idx]
	d.idx++
	status := RecordMore
	if d.idx == len(d.leaves) {
		status = RecordLast
	}
	return DiscoverRecord{Path: leaf.path, Version: leaf.version, Dim: leaf.dim}, status, nil
}

// End closes the transaction. Discover is non-transactional.
func (d *DiscoverTransaction) End() error { return d.tx.end() }

// BootstrapDiscoverTransaction drives Bootstrap-Discover (spec §4.4.3).
type BootstrapDiscoverTransaction struct {
	tx     *transaction
	leaves []DiscoverRecord
	idx    int
}

// BeginBootstrapDiscover opens a Bootstrap-Discover transaction. Paths
// of depth OI or deeper are rejected.
func BeginBootstrapDiscover(reg *Registry, path Path) (*BootstrapDiscoverTransaction, error) {
	if path.Depth() >= DepthObjectInstance {
		return nil, NewError(KindBadRequest, path, "bootstrap-discover: path depth must be Root or O")
	}

	tx, err := beginTransaction(reg, OpBootstrapDiscover, true)
	if err != nil {
		return nil, err
	}

	var objs []*Object
	if path.Depth() == DepthObject {
		obj, ok := reg.Find(path.ObjectID())
		if !ok {
			err := NewError(KindNotFound, path, "bootstrap-discover: object %d not registered", path.ObjectID())
			tx.fail(err)
			tx.end()
			return nil, err
		}
		objs = []*Object{obj}
	} else {
		objs = reg.Objects()
	}

	var recs []DiscoverRecord
	secObj, _ := reg.Find(OIDSecurity)
	srvObj, _ := reg.Find(OIDServer)

	for _, obj := range objs {
		recs = append(recs, DiscoverRecord{Path: ObjectPath(obj.OID), Version: obj.Version})
		for _, inst := range obj.Instances {
			rec := DiscoverRecord{Path: InstancePath(obj.OID, inst.IID)}
			switch obj.OID {
			case OIDServer:
				if v, ok := readUintResource(obj, inst.IID, RIDServerSSID); ok {
					ssid := uint16(v)
					rec.SSID = &ssid
				}
			case OIDSecurity:
				bootstrap, _ := readBoolResource(obj, inst.IID, RIDSecurityBootstrapServer)
				if !bootstrap {
					if v, ok := readUintResource(obj, inst.IID, RIDSecuritySSID); ok {
						ssid := uint16(v)
						rec.SSID = &ssid
					}
					if uri, ok := readStringResource(obj, inst.IID, RIDSecurityServerURI); ok {
						rec.URI = uri
					}
				}
			case OIDOSCORE:
				rec.SSID = findOSCORESSID(secObj, srvObj, obj.OID, inst.IID)
			}
			recs = append(recs, rec)
		}
	}

	return &BootstrapDiscoverTransaction{tx: tx, leaves: recs}, nil
}

// findOSCORESSID locates the Security-Object instance whose OSCORE
// resource (rid 17) links to (oscoreOID, oscoreIID), then returns that
// instance's SSID.
func findOSCORESSID(secObj, srvObj *Object, oscoreOID, oscoreIID uint16) *uint16 {
	if secObj == nil {
		return nil
	}
	for _, inst := range secObj.Instances {
		link, ok := readObjLnkResource(secObj, inst.IID, RIDSecurityOSCORE)
		if !ok || link.ObjectID != oscoreOID || link.InstanceID != oscoreIID {
			continue
		}
		if v, ok := readUintResource(secObj, inst.IID, RIDSecuritySSID); ok {
			ssid := uint16(v)
			return &ssid
		}
	}
	_ = srvObj
	return nil
}

// TotalCount is the number of records this Bootstrap-Discover will emit.
func (b *BootstrapDiscoverTransaction) TotalCount() int { return len(b.leaves) }

// NextRecord produces the next Bootstrap-Discover record.
func (b *BootstrapDiscoverTransaction) NextRecord() (DiscoverRecord, RecordStatus, error) {
	if b.idx >= len(b.leaves) {
		return DiscoverRecord{}, RecordLast, NewError(KindLogic, RootPath(), "bootstrap-discover: next_record called after last record")
	}
	rec := b.leaves[b.idx]
	b.idx++
	status := RecordMore
	if b.idx == len(b.leaves) {
		status = RecordLast
	}
	return rec, status, nil
}

// End closes the transaction. Bootstrap-Discover is non-transactional.
func (b *BootstrapDiscoverTransaction) End() error { return b.tx.end() }
