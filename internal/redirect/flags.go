package redirect

import (
	"fmt"
	"strconv"
	"strings"
)

// OpenFlags is the open-mode bitmask a client passes with a locate request.
// The values follow the cluster's wire encoding: the low two bits carry the
// access mode and create/truncate are single high bits.
type OpenFlags uint32

const (
	OpenReadOnly  OpenFlags = 0x000
	OpenWriteOnly OpenFlags = 0x001
	OpenReadWrite OpenFlags = 0x002
	OpenCreate    OpenFlags = 0x100
	OpenTruncate  OpenFlags = 0x200

	// MaxLocalFlags is the largest composite value eligible for a local
	// redirect. Anything above it is always served remotely.
	MaxLocalFlags = OpenTruncate
)

// permittedFlags enumerates every open mode eligible for a local redirect.
// Truncate is only accepted on its own since every combination of it with
// another bit lies above MaxLocalFlags.
var permittedFlags = map[OpenFlags]struct{}{
	OpenReadOnly:               {},
	OpenWriteOnly:              {},
	OpenReadWrite:              {},
	OpenCreate | OpenReadOnly:  {},
	OpenCreate | OpenWriteOnly: {},
	OpenCreate | OpenReadWrite: {},
	OpenTruncate:               {},
}

// Permitted reports whether f is one of the simple open modes that may be
// answered with a local redirect.
func (f OpenFlags) Permitted() bool {
	if f > MaxLocalFlags {
		return false
	}
	_, ok := permittedFlags[f]
	return ok
}

// ReadOnly reports whether f requests a plain read-only open.
func (f OpenFlags) ReadOnly() bool {
	return f == OpenReadOnly
}

func (f OpenFlags) String() string {
	var parts []string
	switch f & 0x3 {
	case OpenReadOnly:
		parts = append(parts, "rdonly")
	case OpenWriteOnly:
		parts = append(parts, "wronly")
	case OpenReadWrite:
		parts = append(parts, "rdwr")
	default:
		parts = append(parts, "badmode")
	}
	if f&OpenCreate != 0 {
		parts = append(parts, "creat")
	}
	if f&OpenTruncate != 0 {
		parts = append(parts, "trunc")
	}
	if rest := f &^ (0x3 | OpenCreate | OpenTruncate); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseOpenFlags parses a decimal or 0x-prefixed hexadecimal flag value.
func ParseOpenFlags(s string) (OpenFlags, error) {
	if s == "" {
		return OpenReadOnly, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid open flags %q: %w", s, err)
	}
	return OpenFlags(v), nil
}
