package dispatch

import (
	"fmt"
	"testing"

	"github.com/lwm2m-go/sdm/pkg/sdm"
	"github.com/lwm2m-go/sdm/pkg/sdmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// renderValue is a crude text rendering of a Value good enough for the
// fake codecs below to make assertions against; it is not a real
// encoding.
func renderValue(v sdm.Value) string {
	switch v.Type {
	case sdm.TypeDouble:
		return fmt.Sprintf("%v", v.Double)
	case sdm.TypeInt:
		return fmt.Sprintf("%v", v.Int)
	case sdm.TypeString:
		return v.AsString()
	default:
		return fmt.Sprintf("%v", v.Type)
	}
}

// fakeOutputCodec renders every record as "path=value;" text, ignoring
// content format entirely; it exists only to drive the bridge's
// produce loop without a real SenML-CBOR/link-format implementation.
type fakeOutputCodec struct {
	pending []byte
}

func (f *fakeOutputCodec) Open(op sdm.Operation, path sdm.Path, expectedCount int, accept ContentFormat) error {
	return nil
}

func (f *fakeOutputCodec) NewEntry(record interface{}) error {
	switch r := record.(type) {
	case sdm.ReadRecord:
		f.pending = append(f.pending, []byte(r.Path.String()+"="+renderValue(r.Value)+";")...)
	case sdm.DiscoverRecord:
		f.pending = append(f.pending, []byte(r.Path.String()+";")...)
	case sdm.RegisterRecord:
		f.pending = append(f.pending, []byte(r.Path.String()+";")...)
	}
	return nil
}

func (f *fakeOutputCodec) GetPayload(buf []byte) (int, CodecStatus, error) {
	n := copy(buf, f.pending)
	f.pending = f.pending[n:]
	if len(f.pending) > 0 {
		return n, StatusNeedMoreBuf, nil
	}
	return n, StatusOK, nil
}

// fakeInputCodec decodes a fixed slice of entries handed to it at
// construction time, ignoring whatever bytes Feed receives; it exists
// only to drive the bridge's consume loop.
type fakeInputCodec struct {
	entries []fakeEntry
	idx     int
}

type fakeEntry struct {
	path  sdm.Path
	value sdm.Value
}

func (f *fakeInputCodec) Open(op sdm.Operation, path sdm.Path, contentFormat ContentFormat) error {
	return nil
}

func (f *fakeInputCodec) Feed(data []byte, finished bool) error { return nil }

func (f *fakeInputCodec) NextEntry(hint sdm.ValueType) (sdm.Path, sdm.Value, CodecStatus, error) {
	if f.idx >= len(f.entries) {
		return sdm.Path{}, sdm.Value{}, StatusEOF, nil
	}
	e := f.entries[f.idx]
	f.idx++
	return e.path, e.value, StatusOK, nil
}

func newBridge(fx *sdmtest.Fixture, out *fakeOutputCodec, in *fakeInputCodec) *Bridge {
	return NewBridge(fx.Registry, fx.Table, CodecFactory{
		NewOutput: func(ContentFormat) OutputCodec { return out },
		NewInput:  func(ContentFormat) InputCodec { return in },
	})
}

func TestBridgeReadSuccess(t *testing.T) {
	fx := sdmtest.New()
	b := newBridge(fx, &fakeOutputCodec{}, nil)

	resp := b.Dispatch(RequestEnvelope{
		Op:   sdm.OpRead,
		Path: sdm.InstancePath(sdmtest.OIDTemperature, 0),
	})

	assert.Equal(t, CodeContent, resp.Code)
	assert.Contains(t, string(resp.Payload), "21.5")
}

func TestBridgeReadNotFound(t *testing.T) {
	fx := sdmtest.New()
	b := newBridge(fx, &fakeOutputCodec{}, nil)

	resp := b.Dispatch(RequestEnvelope{
		Op:   sdm.OpRead,
		Path: sdm.InstancePath(999, 0),
	})

	assert.Equal(t, CodeNotFound, resp.Code)
}

func TestBridgeWriteUpdatesResource(t *testing.T) {
	fx := sdmtest.New()
	in := &fakeInputCodec{entries: []fakeEntry{
		{path: sdm.ResourcePath(sdmtest.OIDTemperature, 0, sdmtest.RIDSensorValue), value: sdm.DoubleValue(30)},
	}}
	b := newBridge(fx, nil, in)

	resp := b.Dispatch(RequestEnvelope{
		Op:   sdm.OpWriteUpdate,
		Path: sdm.InstancePath(sdmtest.OIDTemperature, 0),
		Body: []byte("irrelevant for the fake codec"),
	})

	require.Equal(t, CodeChanged, resp.Code)

	readOut := &fakeOutputCodec{}
	b2 := newBridge(fx, readOut, nil)
	readResp := b2.Dispatch(RequestEnvelope{Op: sdm.OpRead, Path: sdm.ResourcePath(sdmtest.OIDTemperature, 0, sdmtest.RIDSensorValue)})
	assert.Contains(t, string(readResp.Payload), "30")
}

func TestBridgeExecuteRejectsNonExecutableResource(t *testing.T) {
	fx := sdmtest.New()
	b := newBridge(fx, nil, nil)

	resp := b.Dispatch(RequestEnvelope{
		Op:   sdm.OpExecute,
		Path: sdm.ResourcePath(sdmtest.OIDTemperature, 0, sdmtest.RIDSensorValue),
	})

	assert.Equal(t, CodeMethodNotAllowed, resp.Code)
}

func TestBridgeProduceReportsBlockContinuation(t *testing.T) {
	fx := sdmtest.New()
	out := &fakeOutputCodec{}
	b := newBridge(fx, out, nil)
	b.BlockSize = 4

	resp := b.Dispatch(RequestEnvelope{
		Op:   sdm.OpRead,
		Path: sdm.InstancePath(sdmtest.OIDTemperature, 0),
	})

	require.NotNil(t, resp.Block2)
	assert.True(t, resp.Block2.More)
	assert.Len(t, resp.Payload, 4)
}

// TestBridgeProduceResumesAcrossBlock2 drains a multi-block Read to
// completion and checks the reassembled payload is exactly one copy of
// the record text: a Block2 continuation must resume the still-open
// producing codec rather than re-running BeginRead (which would push
// the same record into the codec a second time).
func TestBridgeProduceResumesAcrossBlock2(t *testing.T) {
	fx := sdmtest.New()
	out := &fakeOutputCodec{}
	b := newBridge(fx, out, nil)
	b.BlockSize = 4

	var payload []byte
	req := RequestEnvelope{Op: sdm.OpRead, Path: sdm.InstancePath(sdmtest.OIDTemperature, 0)}
	for i := 0; ; i++ {
		resp := b.Dispatch(req)
		require.Equal(t, CodeContent, resp.Code)
		payload = append(payload, resp.Payload...)
		if resp.Block2 == nil || !resp.Block2.More {
			break
		}
		req.Block2 = &BlockOption{Num: i + 1, Size: 4}
	}

	assert.Equal(t, "/3303/0/5700=21.5;", string(payload))
	assert.Empty(t, b.producing)
}

func TestBridgeWriteBlock1Reassembly(t *testing.T) {
	fx := sdmtest.New()
	in := &fakeInputCodec{entries: []fakeEntry{
		{path: sdm.ResourcePath(sdmtest.OIDTemperature, 0, sdmtest.RIDSensorValue), value: sdm.DoubleValue(12)},
	}}
	b := newBridge(fx, nil, in)
	path := sdm.InstancePath(sdmtest.OIDTemperature, 0)

	resp1 := b.Dispatch(RequestEnvelope{
		Op:     sdm.OpWriteUpdate,
		Path:   path,
		Body:   []byte("first-half"),
		Block1: &BlockOption{Num: 0, More: true, Size: 16},
	})
	assert.Equal(t, CodeChanged, resp1.Code)

	resp2 := b.Dispatch(RequestEnvelope{
		Op:     sdm.OpWriteUpdate,
		Path:   path,
		Body:   []byte("second-half"),
		Block1: &BlockOption{Num: 1, More: false, Size: 16},
	})
	assert.Equal(t, CodeChanged, resp2.Code)
}

func TestBridgeWriteBlock1OutOfOrder(t *testing.T) {
	fx := sdmtest.New()
	b := newBridge(fx, nil, &fakeInputCodec{})
	path := sdm.InstancePath(sdmtest.OIDTemperature, 0)

	resp := b.Dispatch(RequestEnvelope{
		Op:     sdm.OpWriteUpdate,
		Path:   path,
		Body:   []byte("stray-block"),
		Block1: &BlockOption{Num: 3, More: false, Size: 16},
	})
	assert.Equal(t, CodeRequestEntityIncomplete, resp.Code)
}

func TestBridgeInvalidBlockSizeRejected(t *testing.T) {
	fx := sdmtest.New()
	b := newBridge(fx, &fakeOutputCodec{}, nil)

	resp := b.Dispatch(RequestEnvelope{
		Op:     sdm.OpRead,
		Path:   sdm.InstancePath(sdmtest.OIDTemperature, 0),
		Block2: &BlockOption{Size: 100},
	})

	assert.Equal(t, CodeBadRequest, resp.Code)
}
