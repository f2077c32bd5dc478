package sdm

// RegisterRecord is one record of a Register/Update payload: either an
// Object-level record (Version set) or an Instance-level record
// (Version empty).
type RegisterRecord struct {
	Path    Path
	Version string
}

// RegisterTransaction drives Register/Update (spec §4.4.8).
type RegisterTransaction struct {
	tx     *transaction
	leaves []RegisterRecord
	idx    int
}

// BeginRegister opens a Register transaction covering every registered
// Object except Security (oid 0) and OSCORE (oid 21).
func BeginRegister(reg *Registry) (*RegisterTransaction, error) {
	tx, err := beginTransaction(reg, OpRegister, false)
	if err != nil {
		return nil, err
	}

	var leaves []RegisterRecord
	for _, obj := range reg.Objects() {
		if obj.OID == OIDSecurity || obj.OID == OIDOSCORE {
			continue
		}
		leaves = append(leaves, RegisterRecord{Path: ObjectPath(obj.OID), Version: obj.Version})
		for _, inst := range obj.Instances {
			leaves = append(leaves, RegisterRecord{Path: InstancePath(obj.OID, inst.IID)})
		}
	}

	return &RegisterTransaction{tx: tx, leaves: leaves}, nil
}

// TotalCount is the number of records this Register will emit.
func (r *RegisterTransaction) TotalCount() int { return len(r.leaves) }

// NextRecord produces the next Register record.
func (r *RegisterTransaction) NextRecord() (RegisterRecord, RecordStatus, error) {
	if r.idx >= len(r.leaves) {
		return RegisterRecord{}, RecordLast, NewError(KindLogic, RootPath(), "register: next_record called after last record")
	}
	rec := r.leaves[r.idx]
	r.idx++
	status := RecordMore
	if r.idx == len(r.leaves) {
		status = RecordLast
	}
	return rec, status, nil
}

// End closes the transaction. Register is non-transactional.
func (r *RegisterTransaction) End() error { return r.tx.end() }
