package model

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// OnionSuffix is the suffix shared by all hidden service hosts.
	OnionSuffix = ".onion"

	// onionV3Version is the trailing version byte of a v3 address.
	onionV3Version = 0x03

	// onionV3DecodedLen is pubkey (32) + checksum (2) + version (1).
	onionV3DecodedLen = 35
)

var (
	onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)
	onionV2Pattern = regexp.MustCompile(`^[a-z2-7]{16}\.onion$`)
)

// checksumPrefix is prepended to the key before hashing, per rend-spec-v3.
var checksumPrefix = []byte(".onion checksum")

// IsValidV3Address reports whether host is a v3 onion address with a
// correct checksum. Subdomains are not accepted; pass the bare address.
func IsValidV3Address(host string) bool {
	host = strings.ToLower(host)
	if !onionV3Pattern.MatchString(host) {
		return false
	}

	encoded := strings.ToUpper(strings.TrimSuffix(host, OnionSuffix))
	decoded, err := base32.StdEncoding.DecodeString(encoded)
	if err != nil || len(decoded) != onionV3DecodedLen {
		return false
	}

	pubkey := decoded[:32]
	version := decoded[34]
	if version != onionV3Version {
		return false
	}

	sum := v3Checksum(pubkey, version)
	return decoded[32] == sum[0] && decoded[33] == sum[1]
}

// IsV2Address reports whether host has the shape of a retired v2 address.
func IsV2Address(host string) bool {
	return onionV2Pattern.MatchString(strings.ToLower(host))
}

// ValidateOnionHost checks a host that ends in .onion. It returns
// ErrV2AddressDeprecated for v2 hosts and ErrInvalidOnionAddress for
// anything else that is not a valid v3 address.
func ValidateOnionHost(host string) error {
	if IsValidV3Address(host) {
		return nil
	}
	if IsV2Address(host) {
		return ErrV2AddressDeprecated
	}
	return ErrInvalidOnionAddress
}

// V3AddressFromPublicKey derives the v3 onion host for an ed25519 public key.
func V3AddressFromPublicKey(pubkey []byte) (string, error) {
	if len(pubkey) != 32 {
		return "", ErrInvalidOnionAddress
	}

	data := make([]byte, onionV3DecodedLen)
	copy(data, pubkey)
	copy(data[32:34], v3Checksum(pubkey, onionV3Version))
	data[34] = onionV3Version

	return strings.ToLower(base32.StdEncoding.EncodeToString(data)) + OnionSuffix, nil
}

// v3Checksum returns SHA3-256(".onion checksum" || pubkey || version)[:2].
func v3Checksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)

	hash := sha3.Sum256(data)
	return hash[:2]
}
