package dispatch

import "github.com/lwm2m-go/sdm/pkg/sdm"

// ResponseCode is a CoAP response code expressed the way RFC 7252
// writes it in prose, packed as (class<<5)|detail so
// NewResponseCode(4, 4) has Class 4 and Detail 4, written "4.04". The bridge never touches a transport-layer CoAP
// library directly — it only returns this value, leaving framing to
// whatever codec/transport the caller wires in.
type ResponseCode int

// NewResponseCode builds a code from its class.detail pair, e.g.
// NewResponseCode(2, 5) for "2.05 Content".
func NewResponseCode(class, detail int) ResponseCode {
	return ResponseCode(class<<5 | detail)
}

func (c ResponseCode) Class() int  { return int(c) >> 5 }
func (c ResponseCode) Detail() int { return int(c) & 0x1f }

const (
	CodeContent                 = ResponseCode(2<<5 | 5) // 2.05
	CodeChanged                 = ResponseCode(2<<5 | 4) // 2.04
	CodeCreated                 = ResponseCode(2<<5 | 1) // 2.01
	CodeDeleted                 = ResponseCode(2<<5 | 2) // 2.02
	CodeBadRequest              = ResponseCode(4<<5 | 0) // 4.00
	CodeUnauthorized            = ResponseCode(4<<5 | 1) // 4.01
	CodeNotFound                = ResponseCode(4<<5 | 4) // 4.04
	CodeMethodNotAllowed        = ResponseCode(4<<5 | 5) // 4.05
	CodeRequestEntityIncomplete = ResponseCode(4<<5 | 8) // 4.08
	CodeNotImplemented          = ResponseCode(5<<5 | 1) // 5.01
	CodeServiceUnavailable      = ResponseCode(5<<5 | 3) // 5.03
)

// ErrorCode maps an engine Kind to the CoAP response code spec §6
// assigns it. KindOk has no entry here since a successful operation is
// coded by its operation, not its Kind — callers only consult this
// table once a transaction has failed.
func ErrorCode(kind sdm.Kind) ResponseCode {
	switch kind {
	case sdm.KindBadRequest, sdm.KindLogic, sdm.KindInputArg, sdm.KindMemory, sdm.KindInternal:
		return CodeBadRequest
	case sdm.KindServiceUnavailable:
		// The engine itself never produces this Kind (spec §7: "reserved
		// for callbacks"); a user-supplied handler may still return it.
		return CodeServiceUnavailable
	case sdm.KindNotFound:
		return CodeNotFound
	case sdm.KindMethodNotAllowed:
		return CodeMethodNotAllowed
	case sdm.KindNotImplemented:
		return CodeNotImplemented
	default:
		return CodeBadRequest
	}
}

// SuccessCode maps an operation to the response code it returns when
// it completes without error (spec §6): Read/Discover/Bootstrap-
// Discover/Read-Composite -> 2.05, Write/Execute/Register -> 2.04,
// Create -> 2.01, Delete -> 2.02.
func SuccessCode(op sdm.Operation) ResponseCode {
	switch op {
	case sdm.OpRead, sdm.OpDiscover, sdm.OpBootstrapDiscover, sdm.OpReadComposite:
		return CodeContent
	case sdm.OpWriteReplace, sdm.OpWriteUpdate, sdm.OpExecute, sdm.OpRegister:
		return CodeChanged
	case sdm.OpCreate:
		return CodeCreated
	case sdm.OpDelete:
		return CodeDeleted
	default:
		return CodeChanged
	}
}
