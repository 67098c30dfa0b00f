package bridge

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// deriveTransferID builds a collision-resistant outbound transfer id from the
// sender, its per-sender nonce and the creation time. Deterministic so a
// retried submission with the same nonce lands on the same id.
func deriveTransferID(sender string, nonce int64, at time.Time) string {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(nonce))
	binary.BigEndian.PutUint64(buf[8:], uint64(at.UnixNano()))
	return hexutil.Encode(crypto.Keccak256([]byte(sender), buf[:]))
}

// validAddress accepts any non-empty opaque identity; hex-prefixed values
// must additionally be well-formed EVM addresses.
func validAddress(addr string) bool {
	if addr == "" {
		return false
	}
	if strings.HasPrefix(addr, "0x") {
		return common.IsHexAddress(addr)
	}
	return true
}
