package config

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/lwm2m-go/sdm/pkg/sdm"
	"gopkg.in/yaml.v3"
)

// FixtureResource is one Resource within a fixture Instance. Value's
// interpretation depends on Type; Executable resources (Type "" and
// Kind "E") carry no value at all.
type FixtureResource struct {
	RID   uint16      `yaml:"rid"`
	Kind  string      `yaml:"kind"`
	Type  string      `yaml:"type,omitempty"`
	Value interface{} `yaml:"value,omitempty"`
}

// FixtureInstance is one Object Instance within a fixture.
type FixtureInstance struct {
	IID       uint16            `yaml:"iid"`
	Resources []FixtureResource `yaml:"resources"`
}

// FixtureObject is one Object within a fixture.
type FixtureObject struct {
	OID       uint16            `yaml:"oid"`
	Version   string            `yaml:"version"`
	Capacity  uint16            `yaml:"capacity,omitempty"`
	Instances []FixtureInstance `yaml:"instances"`
}

// Fixture is the spec block of a Fixture document: the Objects a
// cmd/sdmctl invocation should register before running the requested
// operation, the device-side analogue of a WarrenResource's Spec.
type Fixture struct {
	Objects []FixtureObject `yaml:"objects"`
}

type fixtureDocument struct {
	APIVersion string           `yaml:"apiVersion"`
	Kind       string           `yaml:"kind"`
	Metadata   ResourceMetadata `yaml:"metadata"`
	Spec       Fixture          `yaml:"spec"`
}

// LoadFixture reads a Fixture document from path.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var doc fixtureDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Fixture{}, fmt.Errorf("failed to parse fixture file: %w", err)
	}
	if doc.Kind != "" && doc.Kind != "Fixture" {
		return Fixture{}, fmt.Errorf("unsupported fixture kind: %s", doc.Kind)
	}
	return doc.Spec, nil
}

var operationKinds = map[string]sdm.OperationKind{
	"R": sdm.OpR, "W": sdm.OpW, "RW": sdm.OpRW,
	"Rm": sdm.OpRm, "Wm": sdm.OpWm, "RWm": sdm.OpRWm,
	"E": sdm.OpE, "BsRW": sdm.OpBsRW,
}

// BuildRegistry registers every Object a Fixture describes into a
// freshly created Registry sized per cfg.
func BuildRegistry(fx Fixture, cfg EngineConfig) (*sdm.Registry, error) {
	reg := sdm.NewRegistry(cfg.RegistryCapacity)
	for _, fo := range fx.Objects {
		obj, err := buildObject(fo, cfg)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(obj); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func buildObject(fo FixtureObject, cfg EngineConfig) (*sdm.Object, error) {
	capacity := fo.Capacity
	if capacity == 0 {
		capacity = uint16(cfg.DefaultInstanceCapacity)
	}
	obj := &sdm.Object{OID: fo.OID, Version: fo.Version, Capacity: capacity}
	for _, fi := range fo.Instances {
		inst := &sdm.Instance{IID: fi.IID}
		for _, fr := range fi.Resources {
			res, err := buildResource(fr, cfg)
			if err != nil {
				return nil, fmt.Errorf("object %d instance %d resource %d: %w", fo.OID, fi.IID, fr.RID, err)
			}
			inst.Resources = append(inst.Resources, res)
		}
		obj.InsertInstance(inst)
	}
	return obj, nil
}

func buildResource(fr FixtureResource, cfg EngineConfig) (*sdm.Resource, error) {
	kind, ok := operationKinds[fr.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown resource kind %q", fr.Kind)
	}
	if kind.Executable() {
		return sdm.NewExecutableResource(fr.RID, func(sdm.EntityRef, []byte) error { return nil }), nil
	}

	vt, val, err := parseValue(fr.Type, fr.Value)
	if err != nil {
		return nil, err
	}
	spec := sdm.ResourceSpec{RID: fr.RID, Kind: kind, ValueType: vt}
	if kind.Multi() {
		r := sdm.NewMultiResource(spec, uint16(cfg.DefaultMultiResourceCapacity))
		if fr.Value != nil {
			if err := r.AddResourceInstance(0, val); err != nil {
				return nil, err
			}
		}
		return r, nil
	}
	return sdm.NewSingleResource(spec, val), nil
}

// ParseValueForType exposes parseValue for callers outside this
// package that need to turn a fixture-style (type name, raw scalar)
// pair into an sdm.Value, such as cmd/sdmctl's write-request codec.
func ParseValueForType(typeName string, raw interface{}) (sdm.ValueType, sdm.Value, error) {
	return parseValue(typeName, raw)
}

func parseValue(typeName string, raw interface{}) (sdm.ValueType, sdm.Value, error) {
	switch typeName {
	case "int":
		n, err := toInt64(raw)
		return sdm.TypeInt, sdm.IntValue(n), err
	case "uint":
		n, err := toInt64(raw)
		return sdm.TypeUint, sdm.UintValue(uint64(n)), err
	case "double":
		f, err := toFloat64(raw)
		return sdm.TypeDouble, sdm.DoubleValue(f), err
	case "bool":
		b, _ := raw.(bool)
		return sdm.TypeBool, sdm.BoolValue(b), nil
	case "string":
		s, _ := raw.(string)
		return sdm.TypeString, sdm.StringValue(s), nil
	case "time":
		n, err := toInt64(raw)
		return sdm.TypeTime, sdm.TimeValue(n), err
	case "bytes":
		s, _ := raw.(string)
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return sdm.TypeBytes, sdm.Value{}, fmt.Errorf("invalid base64 bytes value: %w", err)
		}
		return sdm.TypeBytes, sdm.BytesValue(data), nil
	default:
		return sdm.TypeNone, sdm.Value{}, fmt.Errorf("unknown resource value type %q", typeName)
	}
}

func toInt64(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("expected integer value, got %T", raw)
	}
}

func toFloat64(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected numeric value, got %T", raw)
	}
}
