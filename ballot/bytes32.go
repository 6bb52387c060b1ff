package ballot

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// FormatBytes32String packs s into a zero-padded 32 byte word.
func FormatBytes32String(s string) (h common.Hash, err error) {
	if len(s) > common.HashLength {
		err = ErrNameTooLong
		return
	}
	copy(h[:], s)
	return
}

// ParseBytes32String is the inverse of FormatBytes32String: trailing zero
// bytes are dropped.
func ParseBytes32String(h common.Hash) string {
	return string(bytes.TrimRight(h[:], "\x00"))
}
