package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lwm2m-go/sdm/pkg/sdm"
)

// parsePath turns a slash-separated "/oid/iid/rid/riid" string into a
// sdm.Path, the CLI-only counterpart of path.go's typed constructors
// (those take numeric arguments directly; a terminal only has a
// string to offer).
func parsePath(s string) (sdm.Path, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "/")
	if s == "" {
		return sdm.RootPath(), nil
	}

	parts := strings.Split(s, "/")
	if len(parts) > 4 {
		return sdm.Path{}, fmt.Errorf("path %q has too many segments", s)
	}

	ids := make([]uint16, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return sdm.Path{}, fmt.Errorf("path %q: segment %q is not a valid ID: %w", s, p, err)
		}
		ids[i] = uint16(n)
	}

	switch len(ids) {
	case 1:
		return sdm.ObjectPath(ids[0]), nil
	case 2:
		return sdm.InstancePath(ids[0], ids[1]), nil
	case 3:
		return sdm.ResourcePath(ids[0], ids[1], ids[2]), nil
	case 4:
		return sdm.ResourceInstancePath(ids[0], ids[1], ids[2], ids[3]), nil
	default:
		return sdm.RootPath(), nil
	}
}
