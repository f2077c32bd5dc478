package sdm

// Operation names the nine user-facing entry points (spec §4.4). Each
// drives the transaction controller below in a slightly different
// way; Transactional reports which of them participate in the
// validate/commit/rollback procedure of spec §4.3.
type Operation int

const (
	OpRead Operation = iota
	OpDiscover
	OpBootstrapDiscover
	OpWriteReplace
	OpWriteUpdate
	OpCreate
	OpDelete
	OpExecute
	OpRegister
	OpReadComposite
)

func (o Operation) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpDiscover:
		return "discover"
	case OpBootstrapDiscover:
		return "bootstrap-discover"
	case OpWriteReplace:
		return "write-replace"
	case OpWriteUpdate:
		return "write-update"
	case OpCreate:
		return "create"
	case OpDelete:
		return "delete"
	case OpExecute:
		return "execute"
	case OpRegister:
		return "register"
	case OpReadComposite:
		return "read-composite"
	default:
		return "unknown"
	}
}

// Transactional reports whether the operation participates in the
// validate/commit/rollback procedure of spec §4.3: Read-Composite,
// Write-Replace, Write-Update, Create, Delete. The remaining
// operations (Read, Discover, Bootstrap-Discover, Execute, Register)
// never call OperationValidate, since they never mutate state; their
// OperationEnd still receives OutcomeFailure when one of their steps
// failed.
func (o Operation) Transactional() bool {
	switch o {
	case OpReadComposite, OpWriteReplace, OpWriteUpdate, OpCreate, OpDelete:
		return true
	default:
		return false
	}
}

// Outcome is the final disposition an Object's OperationEnd handler
// observes.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

// transaction drives one call to Begin..End against a Registry. Only
// one transaction may be open on a Registry at a time (op_in_progress,
// spec §4.3 step 1); Begin enforces this and End always clears it.
type transaction struct {
	registry    *Registry
	op          Operation
	isBootstrap bool

	touched []*Object // in first-touch order; deduplicated
	result  error
	ended   bool
}

// beginTransaction opens a transaction against reg. It fails with
// KindLogic if another transaction is already in progress, matching
// the engine's single-operation-at-a-time contract (spec §4.3, §5:
// "any second begin returns Logic").
func beginTransaction(reg *Registry, op Operation, isBootstrap bool) (*transaction, error) {
	if reg.opInProgress {
		return nil, NewError(KindLogic, RootPath(), "%s: operation already in progress", op)
	}
	reg.opInProgress = true
	return &transaction{registry: reg, op: op, isBootstrap: isBootstrap}, nil
}

// touch records that obj participates in this transaction, calling
// its OperationBegin handler exactly once (spec §4.3 step 2, "first
// time touched"). It is a no-op on every call after the first for the
// same Object.
func (t *transaction) touch(obj *Object) error {
	if obj.inTransaction {
		return nil
	}
	obj.inTransaction = true
	t.touched = append(t.touched, obj)
	if obj.Handlers.OperationBegin != nil {
		if err := obj.Handlers.OperationBegin(t.op); err != nil {
			return WrapError(KindOf(err), PathOf(err), err)
		}
	}
	return nil
}

// fail records the first failure seen during the transaction. Later
// calls to fail do not overwrite an earlier one: the first failure
// reported wins, matching the source engine's "first error sticks"
// behavior.
func (t *transaction) fail(err error) error {
	if err == nil {
		return nil
	}
	if t.result == nil {
		t.result = err
	}
	return err
}

// end runs the spec §4.3 4-step close-out procedure:
//  1. if a result is already recorded, skip straight to commit/rollback;
//  2. if Transactional() and no prior failure, call OperationValidate
//     on every touched Object, in touch order; a validation failure
//     becomes the transaction's result and forces rollback;
//  3. call OperationEnd(outcome) on every touched Object in touch
//     order, clearing in_transaction as it goes;
//  4. clear op_in_progress on the registry.
//
// end always runs exactly once per transaction; a second call is a
// programming error and panics, since it only ever happens through
// this package's own op_*.go callers.
func (t *transaction) end() error {
	if t.ended {
		panic("sdm: transaction.end called twice")
	}
	t.ended = true

	if t.result == nil && t.op.Transactional() {
		for _, obj := range t.touched {
			if obj.Handlers.OperationValidate == nil {
				continue
			}
			if err := obj.Handlers.OperationValidate(); err != nil {
				t.result = WrapError(KindOf(err), PathOf(err), err)
				break
			}
		}
	}

	outcome := OutcomeSuccess
	if t.result != nil {
		outcome = OutcomeFailure
	}

	for _, obj := range t.touched {
		if obj.Handlers.OperationEnd != nil {
			obj.Handlers.OperationEnd(outcome)
		}
		obj.inTransaction = false
	}

	t.registry.opInProgress = false
	return t.result
}
