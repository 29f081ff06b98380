package levels

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Address identifies one tile: its level, and its row and column counted
// from the level set's south-west corner.
// For a given LevelSet (see Fingerprint) an address always denotes the same footprint,
// so it is suitable as a cache key.
type Address struct {
	Level  int `json:"level" yaml:"level"`
	Row    int `json:"row" yaml:"row"`
	Column int `json:"column" yaml:"column"`
}

// AddressKeyLen is the length of an encoded Address key.
const AddressKeyLen = 10

func (a Address) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Level, a.Row, a.Column)
}

// ParseAddress parses the "level/row/column" form produced by String.
// Components are unsigned decimal numbers; nothing else may surround them.
func ParseAddress(s string) (Address, error) {
	const op = "ParseAddress"
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Address{}, argError(op, "address", s, "want level/row/column")
	}
	var v [3]int
	for i, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return Address{}, argError(op, "address", s, "components must be unsigned decimal numbers")
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Address{}, argError(op, "address", s, err.Error())
		}
		v[i] = n
	}
	return Address{Level: v[0], Row: v[1], Column: v[2]}, nil
}

// Key encodes the address as a big-endian byte key which sorts
// by level, then row, then column.
func (a Address) Key() []byte {
	k := make([]byte, AddressKeyLen)
	binary.BigEndian.PutUint16(k[0:2], uint16(a.Level))
	binary.BigEndian.PutUint32(k[2:6], uint32(a.Row))
	binary.BigEndian.PutUint32(k[6:10], uint32(a.Column))
	return k
}

func AddressFromKey(k []byte) (Address, error) {
	if len(k) != AddressKeyLen {
		return Address{}, argError("AddressFromKey", "key", k, fmt.Sprintf("want %d bytes", AddressKeyLen))
	}
	return Address{
		Level:  int(binary.BigEndian.Uint16(k[0:2])),
		Row:    int(binary.BigEndian.Uint32(k[2:6])),
		Column: int(binary.BigEndian.Uint32(k[6:10])),
	}, nil
}

func (a Address) valid() bool {
	return a.Level >= 0 && a.Level <= math.MaxUint16 && a.Row >= 0 && a.Column >= 0
}
