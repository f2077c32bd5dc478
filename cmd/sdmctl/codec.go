package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lwm2m-go/sdm/pkg/config"
	"github.com/lwm2m-go/sdm/pkg/dispatch"
	"github.com/lwm2m-go/sdm/pkg/sdm"
)

// jsonEntry is the wire shape this CLI's codec uses for both output
// and input: one JSON object per record. Output writes them
// newline-delimited; input reads a single JSON array of them. It is not
// a registered LwM2M Content-Format — just enough structure to drive
// operations by hand from a terminal (the codec.go interfaces in
// pkg/dispatch are format-agnostic; a SenML-CBOR/link-format codec
// would implement the same two interfaces for a real CoAP transport).
type jsonEntry struct {
	Path    string      `json:"path"`
	Version string      `json:"version,omitempty"`
	Dim     *int        `json:"dim,omitempty"`
	SSID    *uint16     `json:"ssid,omitempty"`
	URI     string      `json:"uri,omitempty"`
	Type    string      `json:"type,omitempty"`
	Value   interface{} `json:"value,omitempty"`
}

// jsonOutputCodec renders every record as one jsonEntry per line.
type jsonOutputCodec struct {
	buf bytes.Buffer
}

func newJSONOutputCodec(dispatch.ContentFormat) dispatch.OutputCodec { return &jsonOutputCodec{} }

func (c *jsonOutputCodec) Open(op sdm.Operation, path sdm.Path, expectedCount int, accept dispatch.ContentFormat) error {
	return nil
}

func (c *jsonOutputCodec) NewEntry(record interface{}) error {
	var e jsonEntry
	switch r := record.(type) {
	case sdm.ReadRecord:
		e.Path = r.Path.String()
		e.Type = r.Value.Type.String()
		e.Value = renderValue(r.Value)
	case sdm.DiscoverRecord:
		e.Path = r.Path.String()
		e.Version = r.Version
		e.Dim = r.Dim
		e.SSID = r.SSID
		e.URI = r.URI
	case sdm.RegisterRecord:
		e.Path = r.Path.String()
		e.Version = r.Version
	default:
		return fmt.Errorf("codec: unsupported record type %T", record)
	}
	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	c.buf.Write(line)
	c.buf.WriteByte('\n')
	return nil
}

func (c *jsonOutputCodec) GetPayload(buf []byte) (int, dispatch.CodecStatus, error) {
	n, _ := c.buf.Read(buf)
	if c.buf.Len() > 0 {
		return n, dispatch.StatusNeedMoreBuf, nil
	}
	return n, dispatch.StatusOK, nil
}

func renderValue(v sdm.Value) interface{} {
	switch v.Type {
	case sdm.TypeInt:
		return v.Int
	case sdm.TypeUint:
		return v.Uint
	case sdm.TypeDouble:
		return v.Double
	case sdm.TypeBool:
		return v.Bool
	case sdm.TypeTime:
		return v.Time
	case sdm.TypeString:
		return v.AsString()
	case sdm.TypeBytes:
		return v.Bytes.Data
	case sdm.TypeObjLnk:
		return fmt.Sprintf("%d:%d", v.ObjLnk.ObjectID, v.ObjLnk.InstanceID)
	default:
		return nil
	}
}

// jsonInputCodec decodes a JSON array of {path, type, value} entries
// fed to it as a single Write/Create body.
type jsonInputCodec struct {
	entries []jsonEntry
	idx     int
}

func newJSONInputCodec(dispatch.ContentFormat) dispatch.InputCodec { return &jsonInputCodec{} }

func (c *jsonInputCodec) Open(op sdm.Operation, path sdm.Path, contentFormat dispatch.ContentFormat) error {
	return nil
}

func (c *jsonInputCodec) Feed(data []byte, finished bool) error {
	if !finished {
		return nil
	}
	return json.Unmarshal(data, &c.entries)
}

func (c *jsonInputCodec) NextEntry(hint sdm.ValueType) (sdm.Path, sdm.Value, dispatch.CodecStatus, error) {
	if c.idx >= len(c.entries) {
		return sdm.Path{}, sdm.Value{}, dispatch.StatusEOF, nil
	}
	e := c.entries[c.idx]
	c.idx++

	path, err := parsePath(e.Path)
	if err != nil {
		return sdm.Path{}, sdm.Value{}, dispatch.StatusEOF, err
	}

	typeName := e.Type
	if typeName == "" {
		if hint == sdm.TypeNone {
			return path, sdm.Value{}, dispatch.StatusWantTypeDisambiguation, nil
		}
		typeName = hint.String()
	}
	v, err := parseFixtureValueForWrite(typeName, e.Value)
	if err != nil {
		return sdm.Path{}, sdm.Value{}, dispatch.StatusEOF, err
	}
	return path, v, dispatch.StatusOK, nil
}

func parseFixtureValueForWrite(typeName string, raw interface{}) (sdm.Value, error) {
	_, v, err := config.ParseValueForType(typeName, raw)
	return v, err
}
