package sdm

import "time"

// Attributes holds the pmin/pmax notification-class attributes this
// core supports (spec §4.4.10). It has no fields for the extended
// attribute set (gt/lt/st/edge/hqmax/con), so such attributes cannot be
// passed to WriteAttributes, and WriteAttributes has no path that
// answers them with KindMethodNotAllowed.
type Attributes struct {
	PMin *time.Duration
	PMax *time.Duration
}

func (a Attributes) empty() bool { return a.PMin == nil && a.PMax == nil }

// ObservationRecord is one slot of the fixed-capacity observation
// table (spec §4.4.10).
type ObservationRecord struct {
	Path         Path
	ObserveAttrs Attributes
	WriteAttrs   Attributes
	LastValue    Value
	LastSentAt   time.Time
	Pending      bool
	Token        []byte
	Seq          uint32
}

func (r *ObservationRecord) effectiveAttrs() Attributes {
	if !r.ObserveAttrs.empty() {
		return r.ObserveAttrs
	}
	return r.WriteAttrs
}

// ObservationTable is the engine's fixed-capacity set of active
// observations. Capacity is a construction parameter, not a process-
// wide constant (spec §9 "global mutable notification table").
type ObservationTable struct {
	records  []*ObservationRecord
	capacity int
}

// NewObservationTable builds a table able to hold up to capacity
// concurrent observations.
func NewObservationTable(capacity int) *ObservationTable {
	return &ObservationTable{capacity: capacity}
}

// Active returns the current observation records in slot order. The
// returned slice must not be mutated by the caller.
func (t *ObservationTable) Active() []*ObservationRecord { return t.records }

func (t *ObservationTable) find(path Path) (*ObservationRecord, bool) {
	for _, r := range t.records {
		if r.Path.Equal(path) {
			return r, true
		}
	}
	return nil, false
}

// Observe validates path and either allocates a new record or reuses
// an existing one for the same path, emitting seq=1 with the current
// value as the initial notification.
func Observe(reg *Registry, table *ObservationTable, path Path, token []byte, now time.Time) (ObservationRecord, error) {
	if path.Depth() != DepthResource {
		return ObservationRecord{}, NewError(KindBadRequest, path, "observe: path must be exactly OIR")
	}
	if path.ObjectID() == OIDSecurity || path.ObjectID() == OIDOSCORE {
		return ObservationRecord{}, NewError(KindBadRequest, path, "observe: object %d may not be observed", path.ObjectID())
	}

	ref, err := Locate(reg, path)
	if err != nil {
		return ObservationRecord{}, err
	}
	if ref.Resource.Spec.Kind.Multi() {
		return ObservationRecord{}, NewError(KindBadRequest, path, "observe: resource %d/%d/%d is multi-instance", ref.Object.OID, ref.Instance.IID, ref.Resource.Spec.RID)
	}
	switch ref.Resource.Spec.ValueType {
	case TypeExternalBytes, TypeExternalString:
		return ObservationRecord{}, NewError(KindBadRequest, path, "observe: resource %d/%d/%d has an external type", ref.Object.OID, ref.Instance.IID, ref.Resource.Spec.RID)
	}

	if rec, ok := table.find(path); ok {
		rec.Token = token
		return *rec, nil
	}

	if len(table.records) >= table.capacity {
		return ObservationRecord{}, NewError(KindMemory, path, "observe: observation table full")
	}

	v, err := resolveLeafValue(readLeaf{path: path, res: ref.Resource})
	if err != nil {
		return ObservationRecord{}, err
	}

	rec := &ObservationRecord{Path: path, LastValue: v, LastSentAt: now, Token: token, Seq: 1}
	table.records = append(table.records, rec)
	return *rec, nil
}

// CancelObserve removes path's observation record, if any.
func CancelObserve(table *ObservationTable, path Path) {
	for i, r := range table.records {
		if r.Path.Equal(path) {
			table.records = append(table.records[:i], table.records[i+1:]...)
			return
		}
	}
}

// WriteAttributes stores pmin/pmax in the record's write_attrs,
// allocating a record if path has no active observation yet.
func WriteAttributes(reg *Registry, table *ObservationTable, path Path, attrs Attributes) error {
	ref, err := Locate(reg, path)
	if err != nil {
		return err
	}
	rec, ok := table.find(path)
	if !ok {
		if len(table.records) >= table.capacity {
			return NewError(KindMemory, path, "write-attributes: observation table full")
		}
		rec = &ObservationRecord{Path: path}
		table.records = append(table.records, rec)
	}
	_ = ref
	rec.WriteAttrs = attrs
	return nil
}

// NotificationTick re-evaluates every active record against reg's
// current data, marking Pending where due. now is caller-supplied:
// the engine has no timer of its own (spec §5).
func NotificationTick(reg *Registry, table *ObservationTable, now time.Time) error {
	for _, rec := range table.records {
		attrs := rec.effectiveAttrs()
		elapsed := now.Sub(rec.LastSentAt)

		var pmin time.Duration
		if attrs.PMin != nil {
			pmin = *attrs.PMin
		}

		if attrs.PMax != nil && *attrs.PMax != 0 && *attrs.PMax >= pmin && elapsed >= *attrs.PMax {
			rec.Pending = true
			continue
		}

		if elapsed < pmin {
			continue
		}

		ref, err := Locate(reg, rec.Path)
		if err != nil {
			continue // path vanished since observe; leave pending alone
		}
		cur, err := resolveLeafValue(readLeaf{path: rec.Path, res: ref.Resource})
		if err != nil {
			continue
		}
		if !cur.Equal(rec.LastValue) {
			rec.Pending = true
		}
	}
	return nil
}

// Notification is one emitted envelope (spec §4.4.10 notification_emit).
type Notification struct {
	Path  Path
	Token []byte
	Value Value
	Seq   uint32
}

// NotificationEmit emits at most one notification per call: the first
// pending record in slot order. ok is false if no record is pending.
func NotificationEmit(reg *Registry, table *ObservationTable, now time.Time) (Notification, bool, error) {
	for _, rec := range table.records {
		if !rec.Pending {
			continue
		}
		ref, err := Locate(reg, rec.Path)
		if err != nil {
			return Notification{}, false, err
		}
		cur, err := resolveLeafValue(readLeaf{path: rec.Path, res: ref.Resource})
		if err != nil {
			return Notification{}, false, err
		}
		rec.Seq++
		rec.LastValue = cur
		rec.LastSentAt = now
		rec.Pending = false
		return Notification{Path: rec.Path, Token: rec.Token, Value: cur, Seq: rec.Seq}, true, nil
	}
	return Notification{}, false, nil
}
