package sdm

// CreateTransaction drives Create (spec §4.4.5).
type CreateTransaction struct {
	tx      *transaction
	reg     *Registry
	obj     *Object
	path    Path
	created bool
	iid     uint16
}

// BeginCreate opens a Create transaction against the Object at path,
// which must have exact depth O. Fails KindMemory immediately if the
// Object is already at capacity.
func BeginCreate(reg *Registry, path Path) (*CreateTransaction, error) {
	if path.Depth() != DepthObject {
		return nil, NewError(KindBadRequest, path, "create: path depth must be exactly O")
	}

	tx, err := beginTransaction(reg, OpCreate, false)
	if err != nil {
		return nil, err
	}

	obj, err := LocateObject(reg, path.ObjectID())
	if err != nil {
		tx.fail(err)
		tx.end()
		return nil, err
	}
	if tErr := tx.touch(obj); tErr != nil {
		tx.fail(tErr)
		tx.end()
		return nil, tErr
	}
	if len(obj.Instances) >= int(obj.Capacity) {
		err := NewError(KindMemory, path, "create: object %d at capacity %d", obj.OID, obj.Capacity)
		tx.fail(err)
		tx.end()
		return nil, err
	}

	return &CreateTransaction{tx: tx, reg: reg, obj: obj, path: path, iid: InvalidID}, nil
}

// CreateInstance handles an explicit IID header record arriving before
// any write_entry. A wire-supplied iid of InvalidID is BadRequest (the
// sentinel is reserved for the engine's own "pick free iid" path); a
// duplicate iid is MethodNotAllowed.
func (c *CreateTransaction) CreateInstance(iid uint16) error {
	if c.created {
		err := NewError(KindLogic, c.path, "create: instance already created in this transaction")
		c.tx.fail(err)
		return err
	}
	if iid == InvalidID {
		err := NewError(KindBadRequest, c.path, "create: explicit instance id must not be 0xFFFF")
		c.tx.fail(err)
		return err
	}
	if _, exists := c.obj.Instance(iid); exists {
		err := NewError(KindMethodNotAllowed, c.path, "create: instance %d already exists", iid)
		c.tx.fail(err)
		return err
	}
	return c.doCreate(iid)
}

func (c *CreateTransaction) doCreate(iid uint16) error {
	var actual uint16
	if c.obj.Handlers.InstCreate != nil {
		a, err := c.obj.Handlers.InstCreate(iid)
		if err != nil {
			wrapped := WrapError(KindOf(err), c.path, err)
			c.tx.fail(wrapped)
			return wrapped
		}
		actual = a
	} else {
		if iid == InvalidID {
			free, ok := c.obj.SmallestFreeIID()
			if !ok {
				err := NewError(KindMemory, c.path, "create: object %d has no free instance id", c.obj.OID)
				c.tx.fail(err)
				return err
			}
			actual = free
		} else {
			actual = iid
		}
		c.obj.InsertInstance(&Instance{IID: actual})
	}
	c.created = true
	c.iid = actual
	return nil
}

// WriteEntry ingests one entry the same way Write does (spec §4.4.5:
// "the engine defers create_object_instance until the first
// write_entry, passing record.path.iid"). The first call with no
// instance created yet triggers creation using entry.Path's iid.
func (c *CreateTransaction) WriteEntry(entry WriteEntry) error {
	if !c.created {
		iid, _ := entry.Path.InstanceID()
		if err := c.doCreate(iid); err != nil {
			return err
		}
	}
	if err := applyWriteEntry(c.reg, c.tx, InstancePath(c.obj.OID, c.iid), entry, false); err != nil {
		c.tx.fail(err)
		return err
	}
	return nil
}

// IID returns the instance id assigned to the new instance. Only
// meaningful after a CreateInstance/WriteEntry call or after End for
// an empty Create.
func (c *CreateTransaction) IID() uint16 { return c.iid }

// End closes the transaction. An empty Create (no CreateInstance, no
// WriteEntry call) still creates an instance, selecting the smallest
// free iid, per spec §4.4.5.
func (c *CreateTransaction) End() error {
	if !c.created && c.tx.result == nil {
		if err := c.doCreate(InvalidID); err != nil {
			return c.tx.end()
		}
	}
	return c.tx.end()
}
