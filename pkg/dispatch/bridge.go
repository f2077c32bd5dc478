// Package dispatch implements the boundary between a CoAP/LwM2M
// transport and the core data model engine (pkg/sdm): it resolves a
// request into the right Begin.. call, drives the codec the caller
// supplies across as many block-wise messages as the payload needs,
// and turns the engine's Kind-tagged errors into CoAP response codes.
// The core engine never imports this package or anything in it.
package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/lwm2m-go/sdm/pkg/log"
	"github.com/lwm2m-go/sdm/pkg/metrics"
	"github.com/lwm2m-go/sdm/pkg/sdm"
)

// validBlockSizes are the block-size option values CoAP block-wise
// transfer (RFC 7959) permits.
var validBlockSizes = map[int]bool{
	16: true, 32: true, 64: true, 128: true, 256: true, 512: true, 1024: true,
}

// BlockOption carries a CoAP Block1/Block2 option value.
type BlockOption struct {
	Num  int
	More bool
	Size int
}

// RequestEnvelope is everything the bridge needs to dispatch one
// request, already parsed out of whatever transport framing produced
// it (spec §4.4.11 treats this boundary as a given).
type RequestEnvelope struct {
	Op            sdm.Operation
	Path          sdm.Path
	BasePaths     []sdm.Path // Read-Composite only; ignored otherwise
	IsBootstrap   bool
	ContentFormat ContentFormat
	Accept        ContentFormat
	Body          []byte
	Block1        *BlockOption // incoming body continuation (Write/Create)
	Block2        *BlockOption // outgoing block requested by the peer
	ExecuteArg    []byte
}

// ResponseEnvelope is the bridge's answer: a CoAP response code plus
// whatever payload and block-continuation state the caller's
// transport needs to frame a reply.
type ResponseEnvelope struct {
	Code          ResponseCode
	Payload       []byte
	Block2        *BlockOption
	ContentFormat ContentFormat
}

// CodecFactory builds a fresh codec instance per request; concrete
// transports supply one implementation per Content-Format they accept.
type CodecFactory struct {
	NewOutput func(ContentFormat) OutputCodec
	NewInput  func(ContentFormat) InputCodec
}

// Bridge drives one Registry/ObservationTable pair through the codec
// boundary. It imports pkg/metrics and pkg/log so that the core engine
// (pkg/sdm, pkg/objects) stays free of both.
type Bridge struct {
	Registry *sdm.Registry
	Table    *sdm.ObservationTable
	Codecs   CodecFactory

	// BlockSize bounds how many payload bytes GetPayload is asked for
	// per call when the request did not name a size via Block2.Size; a
	// valid Block2.Size replaces it.
	BlockSize int

	// reassembly holds in-progress Block1 bodies for Write/Create,
	// keyed by the target path's string form. A CoAP server only ever
	// has one client driving a given path's block sequence at a time
	// in this engine's single-operation-at-a-time model, so the key
	// need not include a client/token identity.
	reassembly map[string]*blockAssembly

	// producing holds output codecs (and the transaction End they owe)
	// for a Block2 response still being drained, keyed the same way as
	// reassembly. Without this, a second GetPayload call would have no
	// codec left to pull from and the producing transaction would
	// already have ended (spec §4.4.11 step 3 / §5: the transaction
	// stays open across the blocks it produces).
	producing map[string]*producingCodec
}

type blockAssembly struct {
	body    []byte
	nextNum int
}

type producingCodec struct {
	codec  OutputCodec
	end    func() error
	accept ContentFormat
}

// NewBridge builds a Bridge with a default block size of 1024 bytes.
func NewBridge(reg *sdm.Registry, table *sdm.ObservationTable, codecs CodecFactory) *Bridge {
	return &Bridge{
		Registry:   reg,
		Table:      table,
		Codecs:     codecs,
		BlockSize:  1024,
		reassembly: make(map[string]*blockAssembly),
		producing:  make(map[string]*producingCodec),
	}
}

// produceKey identifies the output stream a Block2 continuation resumes,
// scoped to the operation plus the path(s) it was opened against.
func produceKey(req RequestEnvelope) string {
	if len(req.BasePaths) > 0 {
		parts := make([]string, len(req.BasePaths))
		for i, p := range req.BasePaths {
			parts[i] = p.String()
		}
		return req.Op.String() + "|" + strings.Join(parts, ",")
	}
	return req.Op.String() + "|" + req.Path.String()
}

// Dispatch resolves req to the matching engine operation, drives it to
// completion (spanning as many calls as block-wise transfer requires),
// and returns the response to send. It never panics on a malformed
// request: every rejection comes back as a Kind-derived response code.
func (b *Bridge) Dispatch(req RequestEnvelope) ResponseEnvelope {
	logger := log.WithOp(req.Op.String())
	timer := metrics.NewTimer()

	resp := b.route(req)

	metrics.OperationsTotal.WithLabelValues(req.Op.String(), resultLabel(resp.Code)).Inc()
	timer.ObserveDurationVec(metrics.TransactionDuration, req.Op.String())
	if resp.Block2 != nil && resp.Block2.More {
		metrics.BlockTransfersTotal.WithLabelValues(req.Op.String()).Inc()
	}
	logger.Debug().Int("code_class", resp.Code.Class()).Int("code_detail", resp.Code.Detail()).Msg("dispatched")
	return resp
}

func resultLabel(code ResponseCode) string {
	if code.Class() == 2 {
		return "ok"
	}
	return fmt.Sprintf("%d.%02d", code.Class(), code.Detail())
}

// route is split out from Dispatch only so Dispatch can wrap it with
// uniform metrics/logging; it contains the actual per-operation logic.
func (b *Bridge) route(req RequestEnvelope) ResponseEnvelope {
	blockSize := b.BlockSize
	if req.Block2 != nil && req.Block2.Size != 0 {
		if !validBlockSizes[req.Block2.Size] {
			return errResponse(sdm.NewError(sdm.KindInputArg, req.Path, "invalid block size %d", req.Block2.Size))
		}
		blockSize = req.Block2.Size
	}

	switch req.Op {
	case sdm.OpRead, sdm.OpDiscover, sdm.OpBootstrapDiscover, sdm.OpReadComposite, sdm.OpRegister:
		if req.Block2 != nil && req.Block2.Num > 0 {
			key := produceKey(req)
			pc, ok := b.producing[key]
			if !ok {
				return ResponseEnvelope{Code: CodeRequestEntityIncomplete}
			}
			return b.resume(req, key, pc, blockSize)
		}
	}

	switch req.Op {
	case sdm.OpRead:
		tx, err := sdm.BeginRead(b.Registry, req.Path, req.IsBootstrap)
		if err != nil {
			return errResponse(err)
		}
		return b.produce(req, produceKey(req), tx.TotalCount(), blockSize,
			func() (interface{}, sdm.RecordStatus, error) { return tx.NextRecord() },
			tx.End)

	case sdm.OpDiscover:
		tx, err := sdm.BeginDiscover(b.Registry, req.Path)
		if err != nil {
			return errResponse(err)
		}
		return b.produce(req, produceKey(req), tx.TotalCount(), blockSize,
			func() (interface{}, sdm.RecordStatus, error) { return tx.NextRecord() },
			tx.End)

	case sdm.OpBootstrapDiscover:
		tx, err := sdm.BeginBootstrapDiscover(b.Registry, req.Path)
		if err != nil {
			return errResponse(err)
		}
		return b.produce(req, produceKey(req), tx.TotalCount(), blockSize,
			func() (interface{}, sdm.RecordStatus, error) { return tx.NextRecord() },
			tx.End)

	case sdm.OpReadComposite:
		tx, err := sdm.BeginReadComposite(b.Registry, req.IsBootstrap)
		if err != nil {
			return errResponse(err)
		}
		for _, p := range req.BasePaths {
			if _, err := tx.NextBasePath(p); err != nil {
				tx.End()
				return errResponse(err)
			}
		}
		return b.produce(req, produceKey(req), 0, blockSize,
			func() (interface{}, sdm.RecordStatus, error) { return tx.NextRecord() },
			tx.End)

	case sdm.OpRegister:
		tx, err := sdm.BeginRegister(b.Registry)
		if err != nil {
			return errResponse(err)
		}
		return b.produce(req, produceKey(req), tx.TotalCount(), blockSize,
			func() (interface{}, sdm.RecordStatus, error) { return tx.NextRecord() },
			tx.End)

	case sdm.OpWriteReplace, sdm.OpWriteUpdate:
		body, complete := b.assembleBlock1(req)
		if !complete {
			return ResponseEnvelope{Code: CodeChanged} // ack the block, await the rest
		}
		if body == nil {
			return ResponseEnvelope{Code: CodeRequestEntityIncomplete}
		}
		req.Body = body
		tx, err := sdm.BeginWrite(b.Registry, req.Path, req.Op == sdm.OpWriteReplace, req.IsBootstrap)
		if err != nil {
			return errResponse(err)
		}
		if err := b.consume(req, tx.WriteEntry, tx.ResolveType); err != nil {
			tx.End()
			return errResponse(err)
		}
		if err := tx.End(); err != nil {
			return errResponse(err)
		}
		return ResponseEnvelope{Code: SuccessCode(req.Op)}

	case sdm.OpCreate:
		body, complete := b.assembleBlock1(req)
		if !complete {
			return ResponseEnvelope{Code: CodeChanged}
		}
		if body == nil {
			return ResponseEnvelope{Code: CodeRequestEntityIncomplete}
		}
		req.Body = body
		tx, err := sdm.BeginCreate(b.Registry, req.Path)
		if err != nil {
			return errResponse(err)
		}
		if err := b.consume(req, tx.WriteEntry, nil); err != nil {
			tx.End()
			return errResponse(err)
		}
		if err := tx.End(); err != nil {
			return errResponse(err)
		}
		return ResponseEnvelope{Code: SuccessCode(req.Op), Payload: []byte(sdm.InstancePath(req.Path.ObjectID(), tx.IID()).String())}

	case sdm.OpDelete:
		tx, err := sdm.BeginDelete(b.Registry, req.Path, req.IsBootstrap)
		if err != nil {
			return errResponse(err)
		}
		if err := tx.End(); err != nil {
			return errResponse(err)
		}
		return ResponseEnvelope{Code: SuccessCode(req.Op)}

	case sdm.OpExecute:
		tx, err := sdm.BeginExecute(b.Registry, req.Path)
		if err != nil {
			return errResponse(err)
		}
		if err := tx.Execute(req.ExecuteArg); err != nil {
			tx.End()
			return errResponse(err)
		}
		if err := tx.End(); err != nil {
			return errResponse(err)
		}
		return ResponseEnvelope{Code: SuccessCode(req.Op)}

	default:
		return errResponse(sdm.NewError(sdm.KindNotImplemented, req.Path, "unsupported operation %s", req.Op))
	}
}

// produce drives a Read/Discover/Bootstrap-Discover/Read-Composite/
// Register transaction against an OutputCodec (spec §4.4.11 steps 2-4):
// it opens the codec, feeds it every record up to RecordLast, then
// drains one block of at most blockSize bytes with GetPayload. If the
// codec still holds output, the transaction is kept open for the next
// Block2 request.
func (b *Bridge) produce(req RequestEnvelope, key string, expectedCount, blockSize int,
	next func() (interface{}, sdm.RecordStatus, error), end func() error) ResponseEnvelope {

	codec := b.Codecs.NewOutput(req.Accept)
	if err := codec.Open(req.Op, req.Path, expectedCount, req.Accept); err != nil {
		end()
		return errResponse(sdm.WrapError(sdm.KindInternal, req.Path, err))
	}

	for {
		record, status, err := next()
		if err != nil {
			end()
			return errResponse(err)
		}
		if err := codec.NewEntry(record); err != nil {
			end()
			return errResponse(sdm.WrapError(sdm.KindInternal, req.Path, err))
		}
		if status == sdm.RecordLast {
			break
		}
	}

	buf := make([]byte, blockSize)
	n, status, err := codec.GetPayload(buf)
	if err != nil {
		end()
		return errResponse(sdm.WrapError(sdm.KindInternal, req.Path, err))
	}

	resp := ResponseEnvelope{Code: SuccessCode(req.Op), Payload: buf[:n], ContentFormat: req.Accept}
	if status == StatusNeedMoreBuf {
		// The transaction stays open: it is this codec's remaining
		// buffered records, not a fresh Begin, that the next Block2
		// request must drain (spec §4.4.11 step 3 / §5).
		b.producing[key] = &producingCodec{codec: codec, end: end, accept: req.Accept}
		resp.Block2 = &BlockOption{Num: 0, More: true, Size: blockSize}
		return resp
	}

	if err := end(); err != nil {
		return errResponse(err)
	}
	return resp
}

// resume drains a producing codec stashed by an earlier produce() call,
// without re-running Begin or re-feeding any record: the codec still
// holds whatever output didn't fit in the previous block.
func (b *Bridge) resume(req RequestEnvelope, key string, pc *producingCodec, blockSize int) ResponseEnvelope {
	buf := make([]byte, blockSize)
	n, status, err := pc.codec.GetPayload(buf)
	if err != nil {
		delete(b.producing, key)
		pc.end()
		return errResponse(sdm.WrapError(sdm.KindInternal, req.Path, err))
	}

	resp := ResponseEnvelope{Code: SuccessCode(req.Op), Payload: buf[:n], ContentFormat: pc.accept}
	if status == StatusNeedMoreBuf {
		resp.Block2 = &BlockOption{Num: req.Block2.Num, More: true, Size: blockSize}
		return resp
	}

	delete(b.producing, key)
	if err := pc.end(); err != nil {
		return errResponse(err)
	}
	return resp
}

// assembleBlock1 accumulates a Write/Create request body across Block1
// continuations (spec §4.4.11, block-wise cooperation). complete is
// false while more blocks are expected (the caller should ack and
// wait); body is nil when assembly has failed because a block arrived
// out of order, which the caller reports as 4.08 Request Entity
// Incomplete.
func (b *Bridge) assembleBlock1(req RequestEnvelope) (body []byte, complete bool) {
	if req.Block1 == nil {
		return req.Body, true
	}

	key := req.Path.String()
	asm, ok := b.reassembly[key]
	if req.Block1.Num == 0 {
		asm = &blockAssembly{}
		b.reassembly[key] = asm
	} else if !ok || req.Block1.Num != asm.nextNum {
		delete(b.reassembly, key)
		return nil, true
	}

	asm.body = append(asm.body, req.Body...)
	asm.nextNum = req.Block1.Num + 1

	if req.Block1.More {
		return nil, false
	}
	delete(b.reassembly, key)
	return asm.body, true
}

// consume drives a Write/Create transaction's ingestion side against
// an InputCodec (spec §4.4.11 steps 2-4 mirrored for the consuming
// direction): feed the full (already block-reassembled) body, then
// pull entries until the codec reports it is out of them, resolving
// ambiguous types through resolveType when the codec asks for one.
func (b *Bridge) consume(req RequestEnvelope, writeEntry func(sdm.WriteEntry) error, resolveType func(sdm.Path) (sdm.ValueType, error)) error {
	codec := b.Codecs.NewInput(req.ContentFormat)
	if err := codec.Open(req.Op, req.Path, req.ContentFormat); err != nil {
		return sdm.WrapError(sdm.KindInternal, req.Path, err)
	}

	if err := codec.Feed(req.Body, true); err != nil {
		return sdm.WrapError(sdm.KindBadRequest, req.Path, err)
	}

	hint := sdm.TypeNone
	for {
		path, value, status, err := codec.NextEntry(hint)
		hint = sdm.TypeNone
		if err != nil {
			return sdm.WrapError(sdm.KindBadRequest, req.Path, err)
		}
		switch status {
		case StatusEOF:
			return nil
		case StatusWantNextPayload:
			// The full body is always fed in one call here (Block1
			// reassembly happens before consume runs), so a codec
			// asking for more means the payload itself is malformed.
			return sdm.NewError(sdm.KindInputArg, req.Path, "write: payload ended mid-entry")
		case StatusWantTypeDisambiguation:
			if resolveType == nil {
				return sdm.NewError(sdm.KindBadRequest, path, "write: ambiguous type not permitted here")
			}
			resolved, err := resolveType(path)
			if err != nil {
				return err
			}
			hint = resolved
			continue
		}
		if err := writeEntry(sdm.WriteEntry{Path: path, Value: value}); err != nil {
			return err
		}
	}
}

func errResponse(err error) ResponseEnvelope {
	return ResponseEnvelope{Code: ErrorCode(sdm.KindOf(err))}
}

// Tick runs one notification-table sweep (spec §4.4.10's periodic
// half), used by a scheduler driving observe/notify independently of
// request dispatch.
func (b *Bridge) Tick(now time.Time) error {
	return sdm.NotificationTick(b.Registry, b.Table, now)
}
