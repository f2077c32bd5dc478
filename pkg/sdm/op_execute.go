package sdm

// ExecuteTransaction drives Execute (spec §4.4.7).
type ExecuteTransaction struct {
	tx  *transaction
	ref EntityRef
}

// BeginExecute opens an Execute transaction. path must have exact
// depth OIR and resolve to a Resource whose operation kind is E.
func BeginExecute(reg *Registry, path Path) (*ExecuteTransaction, error) {
	if path.Depth() != DepthResource {
		return nil, NewError(KindBadRequest, path, "execute: path depth must be exactly OIR")
	}

	tx, err := beginTransaction(reg, OpExecute, false)
	if err != nil {
		return nil, err
	}

	ref, err := Locate(reg, path)
	if err != nil {
		tx.fail(err)
		tx.end()
		return nil, err
	}
	if !ref.Resource.Spec.Kind.Executable() {
		err := NewError(KindMethodNotAllowed, path, "execute: resource %d/%d/%d is not executable", ref.Object.OID, ref.Instance.IID, ref.Resource.Spec.RID)
		tx.fail(err)
		tx.end()
		return nil, err
	}
	if tErr := tx.touch(ref.Object); tErr != nil {
		tx.fail(tErr)
		tx.end()
		return nil, tErr
	}

	return &ExecuteTransaction{tx: tx, ref: ref}, nil
}

// Execute invokes the Resource's execute callback exactly once with arg.
func (e *ExecuteTransaction) Execute(arg []byte) error {
	if e.ref.Resource.Callbacks.Execute == nil {
		err := NewError(KindInternal, e.ref.Path, "execute: resource declared E but has no execute callback")
		e.tx.fail(err)
		return err
	}
	if err := e.ref.Resource.Callbacks.Execute(e.ref, arg); err != nil {
		wrapped := WrapError(KindOf(err), e.ref.Path, err)
		e.tx.fail(wrapped)
		return wrapped
	}
	return nil
}

// End closes the transaction. Execute is non-transactional.
func (e *ExecuteTransaction) End() error { return e.tx.end() }
