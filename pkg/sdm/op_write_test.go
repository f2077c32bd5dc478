package sdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteUpdateRoundTrip(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(1, 0.0)))

	path := ResourcePath(3303, 0, 5700)
	wt, err := BeginWrite(reg, InstancePath(3303, 0), false, false)
	require.NoError(t, err)
	require.NoError(t, wt.WriteEntry(WriteEntry{Path: path, Value: DoubleValue(1.23)}))
	require.NoError(t, wt.End())

	rt, err := BeginRead(reg, path, false)
	require.NoError(t, err)
	rec, _, err := rt.NextRecord()
	require.NoError(t, err)
	assert.Equal(t, 1.23, rec.Value.Double)
	require.NoError(t, rt.End())
}

func TestWriteRejectsTypeMismatch(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(1, 0.0)))

	wt, err := BeginWrite(reg, InstancePath(3303, 0), false, false)
	require.NoError(t, err)
	err = wt.WriteEntry(WriteEntry{Path: ResourcePath(3303, 0, 5700), Value: IntValue(1)})
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, KindOf(err))
	_ = wt.End()
}

func TestWriteRejectsNonWritable(t *testing.T) {
	reg := NewRegistry(4)
	obj := &Object{OID: 3303, Capacity: 1, Instances: []*Instance{
		{IID: 0, Resources: []*Resource{
			NewSingleResource(ResourceSpec{RID: 5700, Kind: OpR, ValueType: TypeDouble}, DoubleValue(0)),
		}},
	}}
	require.NoError(t, reg.Register(obj))

	wt, err := BeginWrite(reg, InstancePath(3303, 0), false, false)
	require.NoError(t, err)
	err = wt.WriteEntry(WriteEntry{Path: ResourcePath(3303, 0, 5700), Value: DoubleValue(1.0)})
	require.Error(t, err)
	assert.Equal(t, KindMethodNotAllowed, KindOf(err))
	_ = wt.End()
}

func TestWriteReplaceEmptiesMultiResourceFirst(t *testing.T) {
	reg := NewRegistry(4)
	res := NewMultiResource(ResourceSpec{RID: 6, Kind: OpRWm, ValueType: TypeInt}, 10)
	require.NoError(t, res.insertInstance(0, IntValue(1)))
	require.NoError(t, res.insertInstance(1, IntValue(2)))
	obj := &Object{OID: 3303, Capacity: 1, Instances: []*Instance{{IID: 0, Resources: []*Resource{res}}}}
	require.NoError(t, reg.Register(obj))

	wt, err := BeginWrite(reg, ResourcePath(3303, 0, 6), true, false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.InstanceCount())
	require.NoError(t, wt.WriteEntry(WriteEntry{Path: ResourceInstancePath(3303, 0, 6, 5), Value: IntValue(9)}))
	require.NoError(t, wt.End())

	assert.Equal(t, 1, res.InstanceCount())
	assert.Equal(t, uint16(5), res.Instances()[0].RIID)
}

func TestWriteStreamedBytesChunkReassembly(t *testing.T) {
	reg := NewRegistry(4)
	res := NewSingleResource(ResourceSpec{RID: 7, Kind: OpRW, ValueType: TypeBytes}, BytesValue(nil))
	res.SetBufferCapacity(16)
	obj := &Object{OID: 3303, Capacity: 1, Instances: []*Instance{{IID: 0, Resources: []*Resource{res}}}}
	require.NoError(t, reg.Register(obj))

	path := ResourcePath(3303, 0, 7)
	wt, err := BeginWrite(reg, InstancePath(3303, 0), false, false)
	require.NoError(t, err)
	require.NoError(t, wt.WriteEntry(WriteEntry{Path: path, Value: BytesChunkValue(Chunk{Data: []byte("abc"), Offset: 0, FullLength: 6})}))
	require.NoError(t, wt.WriteEntry(WriteEntry{Path: path, Value: BytesChunkValue(Chunk{Data: []byte("def"), Offset: 3, FullLength: 6})}))
	require.NoError(t, wt.End())

	assert.Equal(t, []byte("abcdef"), res.value.Bytes.Data)
}

func TestWriteStreamedBytesExceedsCapacity(t *testing.T) {
	reg := NewRegistry(4)
	res := NewSingleResource(ResourceSpec{RID: 7, Kind: OpRW, ValueType: TypeBytes}, BytesValue(nil))
	res.SetBufferCapacity(4)
	obj := &Object{OID: 3303, Capacity: 1, Instances: []*Instance{{IID: 0, Resources: []*Resource{res}}}}
	require.NoError(t, reg.Register(obj))

	wt, err := BeginWrite(reg, InstancePath(3303, 0), false, false)
	require.NoError(t, err)
	err = wt.WriteEntry(WriteEntry{Path: ResourcePath(3303, 0, 7), Value: BytesChunkValue(Chunk{Data: []byte("abcde"), Offset: 0, FullLength: 5})})
	require.Error(t, err)
	assert.Equal(t, KindMemory, KindOf(err))
	_ = wt.End()
}

func TestWriteTypeDisambiguation(t *testing.T) {
	reg := NewRegistry(4)
	require.NoError(t, reg.Register(newTemperatureObject(1, 0.0)))

	path := ResourcePath(3303, 0, 5700)
	wt, err := BeginWrite(reg, InstancePath(3303, 0), false, false)
	require.NoError(t, err)

	declared, err := wt.ResolveType(path)
	require.NoError(t, err)
	assert.Equal(t, TypeDouble, declared)

	require.NoError(t, wt.WriteEntry(WriteEntry{Path: path, Value: DoubleValue(1.0)}))
	require.NoError(t, wt.End())
}
