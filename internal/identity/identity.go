// Package identity recognises a tracked device in BLE advertisements.
//
// A tag rotates its advertised public key, so a device is described by the
// set of keys currently valid for it rather than by a fixed address. Deriving
// that set from the tag's private key material happens outside this process;
// the credential file carries the result.
package identity

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"airtag-presence/internal/scanner"

	"gopkg.in/yaml.v3"
)

const (
	AppleCompanyID = 0x004C

	offlineFindingType = 0x12
	fullPayloadLen     = 0x19
	nearbyPayloadLen   = 0x02

	KeySize    = 28
	prefixSize = 6
)

var (
	ErrReadCredential    = errors.New("read credential file failed")
	ErrInvalidCredential = errors.New("invalid credential file")
)

// Fingerprint decides whether a beacon was sent by one particular device.
type Fingerprint interface {
	Recognizes(b scanner.Beacon) bool
}

type credentialFile struct {
	Name string   `yaml:"name"`
	Keys []string `yaml:"keys"`
}

// Keyset recognises offline-finding advertisements of a set of public keys.
type Keyset struct {
	name     string
	keys     map[[KeySize]byte]struct{}
	prefixes map[[prefixSize]byte]struct{}
}

func NewKeyset(name string, keys [][]byte) (*Keyset, error) {
	const fn = "Identity:NewKeyset"
	if len(keys) == 0 {
		return nil, fmt.Errorf("%s:%w:no keys for %q", fn, ErrInvalidCredential, name)
	}
	ks := &Keyset{
		name:     name,
		keys:     make(map[[KeySize]byte]struct{}, len(keys)),
		prefixes: make(map[[prefixSize]byte]struct{}, len(keys)),
	}
	for i, key := range keys {
		if len(key) != KeySize {
			return nil, fmt.Errorf("%s:%w:key %d of %q has %d bytes, want %d", fn, ErrInvalidCredential, i, name, len(key), KeySize)
		}
		var k [KeySize]byte
		copy(k[:], key)
		ks.keys[k] = struct{}{}

		var p [prefixSize]byte
		copy(p[:], key[:prefixSize])
		ks.prefixes[p] = struct{}{}
	}
	return ks, nil
}

// LoadKeyset reads a YAML credential file listing hex or base64 keys.
func LoadKeyset(path string) (*Keyset, error) {
	const fn = "Identity:LoadKeyset"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s:%w:%w", fn, ErrReadCredential, err)
	}
	var file credentialFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s:%w:%w", fn, ErrInvalidCredential, err)
	}
	name := file.Name
	if name == "" {
		name = path
	}
	keys := make([][]byte, 0, len(file.Keys))
	for i, raw := range file.Keys {
		key, err := decodeKey(raw)
		if err != nil {
			return nil, fmt.Errorf("%s:%w:key %d: %w", fn, ErrInvalidCredential, i, err)
		}
		keys = append(keys, key)
	}
	return NewKeyset(name, keys)
}

func decodeKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == hex.EncodedLen(KeySize) {
		if key, err := hex.DecodeString(raw); err == nil {
			return key, nil
		}
	}
	return base64.StdEncoding.DecodeString(raw)
}

func (k *Keyset) Name() string { return k.name }

func (k *Keyset) Size() int { return len(k.keys) }

// Recognizes reconstructs the advertised key from the beacon's address and
// manufacturer data. Full advertisements carry the whole key; nearby
// advertisements only carry what fits in the address, so those match on the
// key prefix.
func (k *Keyset) Recognizes(b scanner.Beacon) bool {
	data, ok := b.ManufacturerData[AppleCompanyID]
	if !ok || len(data) < 2 || data[0] != offlineFindingType || len(b.Address) != prefixSize {
		return false
	}
	switch {
	case data[1] == fullPayloadLen && len(data) >= 2+fullPayloadLen:
		var key [KeySize]byte
		copy(key[:prefixSize], b.Address)
		key[0] = (key[0] & 0x3f) | (data[25] << 6)
		copy(key[prefixSize:], data[3:25])
		_, found := k.keys[key]
		return found
	case data[1] == nearbyPayloadLen && len(data) >= 4:
		var prefix [prefixSize]byte
		copy(prefix[:], b.Address)
		prefix[0] = (prefix[0] & 0x3f) | (data[3] << 6)
		_, found := k.prefixes[prefix]
		return found
	}
	return false
}
