package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// HMACAddressDeriver implements ports.AddressDeriver.
// The address is the last 20 bytes of Keccak-256(HMAC-SHA256(secret, phone)),
// rendered with an EIP-55 mixed-case checksum. Without the secret the phone
// number cannot be recovered from or linked to an address.
type HMACAddressDeriver struct {
	secret []byte
}

// NewHMACAddressDeriver creates a deriver keyed by secret.
func NewHMACAddressDeriver(secret string) *HMACAddressDeriver {
	return &HMACAddressDeriver{secret: []byte(secret)}
}

// Derive returns the stable external address for phone.
func (d *HMACAddressDeriver) Derive(phone string) string {
	mac := hmac.New(sha256.New, d.secret)
	mac.Write([]byte(phone))

	digest := keccak256(mac.Sum(nil))
	return checksumAddress(digest[12:])
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// checksumAddress upper-cases each hex letter whose matching nibble of
// Keccak-256(lowercase hex) is >= 8.
func checksumAddress(addr []byte) string {
	lower := hex.EncodeToString(addr)
	hash := keccak256([]byte(lower))

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}
