package dispatch

import "github.com/lwm2m-go/sdm/pkg/sdm"

// ContentFormat is the CoAP Content-Format/Accept option value
// (RFC 7252 §12.3; LwM2M registers its own SenML-CBOR/LwM2M-CBOR/
// link-format codepoints on top of it). The bridge only threads this
// value through to the codec it is given — it never inspects it.
type ContentFormat int

// CodecStatus is the result a codec reports back to the bridge after
// being asked for payload bytes or the next parsed entry (spec §6).
type CodecStatus int

const (
	// StatusOK means the codec produced everything requested and has
	// nothing more pending.
	StatusOK CodecStatus = iota
	// StatusNeedMoreBuf means GetPayload filled buf completely but the
	// codec still has encoded bytes queued; the bridge must return a
	// partial block and continue on the next message.
	StatusNeedMoreBuf
	// StatusWantTypeDisambiguation means the codec's next entry carries
	// an ambiguous (TypeNone) value type; the bridge must resolve the
	// declared type from the engine and re-feed.
	StatusWantTypeDisambiguation
	// StatusWantNextPayload means the codec has consumed all fed bytes
	// and needs another incoming block before it can yield another entry.
	StatusWantNextPayload
	// StatusEOF means the input codec has no more entries to yield.
	StatusEOF
)

// OutputEntry is the minimal record shape every producing operation's
// record type reduces to for encoding: a path plus whatever payload the
// operation attaches (a Value for Read/Read-Composite, a version/dim/
// ssid/uri bundle for Discover, a version for Register). The bridge
// passes the operation's native record type through NewEntry's
// interface{} parameter; OutputEntry exists only for the codecs that
// want a uniform shape (e.g. link-format output for Discover/Register,
// where only Path and Version vary).
type OutputEntry struct {
	Path    sdm.Path
	Version string
}

// OutputCodec is the producing side of the codec boundary (spec §6:
// "codec.out_open/out_new_entry/out_get_payload" and the Register/
// Discover/Bootstrap-Discover mirror quadruple). A concrete codec
// (SenML-CBOR, LwM2M-CBOR, link-format) implements this against the
// wire format its Content-Format/Accept selects; pkg/dispatch only
// drives the state machine.
type OutputCodec interface {
	// Open begins encoding op's output for path, expecting to emit
	// expectedCount records, using the format Accept selected.
	Open(op sdm.Operation, path sdm.Path, expectedCount int, accept ContentFormat) error
	// NewEntry queues one record for encoding. record is the
	// operation's native record type (sdm.ReadRecord, sdm.DiscoverRecord,
	// sdm.RegisterRecord).
	NewEntry(record interface{}) error
	// GetPayload drains queued, encoded bytes into buf, returning how
	// many bytes were written and whether more remain queued.
	GetPayload(buf []byte) (n int, status CodecStatus, err error)
}

// InputCodec is the consuming side of the codec boundary (spec §6:
// "codec.in_open/in_feed/in_get_entry"), used by Write and Create.
type InputCodec interface {
	// Open begins decoding op's input for path, using contentFormat to
	// select the wire format.
	Open(op sdm.Operation, path sdm.Path, contentFormat ContentFormat) error
	// Feed pushes raw payload bytes into the codec. finished reports
	// whether this is the last block of the request.
	Feed(data []byte, finished bool) error
	// NextEntry yields the next decoded (path, value) pair. hint, when
	// non-TypeNone, tells the codec the previously-ambiguous entry's
	// resolved type, so it can re-decode with that type applied.
	NextEntry(hint sdm.ValueType) (path sdm.Path, value sdm.Value, status CodecStatus, err error)
}
