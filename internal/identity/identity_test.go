package identity

import (
	"encoding/base64"
	"encoding/hex"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"airtag-presence/internal/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(seed byte) []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = seed + byte(i)*7
	}
	return key
}

func addressFor(key []byte) net.HardwareAddr {
	addr := make(net.HardwareAddr, 6)
	copy(addr, key[:6])
	addr[0] |= 0xc0
	return addr
}

func fullBeacon(key []byte) scanner.Beacon {
	data := []byte{offlineFindingType, fullPayloadLen, 0x10}
	data = append(data, key[6:]...)
	data = append(data, key[0]>>6, 0x00)
	return scanner.Beacon{
		Address:          addressFor(key),
		ManufacturerData: map[uint16][]byte{AppleCompanyID: data},
		DetectedAt:       time.Now(),
	}
}

func nearbyBeacon(key []byte) scanner.Beacon {
	return scanner.Beacon{
		Address:          addressFor(key),
		ManufacturerData: map[uint16][]byte{AppleCompanyID: {offlineFindingType, nearbyPayloadLen, 0x10, key[0] >> 6}},
		DetectedAt:       time.Now(),
	}
}

func Test_Recognizes(t *testing.T) {
	current := testKey(0x41)
	next := testKey(0x93)
	other := testKey(0x05)

	ks, err := NewKeyset("keys", [][]byte{current, next})
	require.NoError(t, err)

	cases := []struct {
		name     string
		beacon   scanner.Beacon
		expected bool
	}{
		{name: "full advertisement of current key", beacon: fullBeacon(current), expected: true},
		{name: "full advertisement after rotation", beacon: fullBeacon(next), expected: true},
		{name: "nearby advertisement", beacon: nearbyBeacon(current), expected: true},
		{name: "full advertisement of another tag", beacon: fullBeacon(other), expected: false},
		{name: "nearby advertisement of another tag", beacon: nearbyBeacon(other), expected: false},
		{
			name: "wrong manufacturer",
			beacon: scanner.Beacon{
				Address:          addressFor(current),
				ManufacturerData: map[uint16][]byte{0x0006: fullBeacon(current).ManufacturerData[AppleCompanyID]},
			},
			expected: false,
		},
		{
			name: "other apple advertisement type",
			beacon: scanner.Beacon{
				Address:          addressFor(current),
				ManufacturerData: map[uint16][]byte{AppleCompanyID: {0x10, 0x05, 0x01, 0x18, 0x00, 0x00, 0x00}},
			},
			expected: false,
		},
		{
			name: "truncated full advertisement",
			beacon: scanner.Beacon{
				Address:          addressFor(current),
				ManufacturerData: map[uint16][]byte{AppleCompanyID: fullBeacon(current).ManufacturerData[AppleCompanyID][:10]},
			},
			expected: false,
		},
		{name: "empty beacon", beacon: scanner.Beacon{}, expected: false},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ks.Recognizes(tt.beacon))
		})
	}
}

func Test_NewKeyset(t *testing.T) {
	_, err := NewKeyset("keys", nil)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = NewKeyset("keys", [][]byte{{0x01, 0x02}})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func Test_LoadKeyset(t *testing.T) {
	dir := t.TempDir()
	a := testKey(0x11)
	b := testKey(0x22)

	cases := []struct {
		name         string
		content      string
		expectedErr  error
		expectedName string
		expectedSize int
	}{
		{
			name:         "hex and base64 keys",
			content:      "name: keys\nkeys:\n  - " + hex.EncodeToString(a) + "\n  - " + base64.StdEncoding.EncodeToString(b) + "\n",
			expectedName: "keys",
			expectedSize: 2,
		},
		{
			name:        "bad key encoding",
			content:     "keys:\n  - not-a-key\n",
			expectedErr: ErrInvalidCredential,
		},
		{
			name:        "no keys",
			content:     "name: empty\n",
			expectedErr: ErrInvalidCredential,
		},
		{
			name:        "not yaml",
			content:     "keys: [unterminated",
			expectedErr: ErrInvalidCredential,
		},
	}

	for i, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, string(rune('a'+i))+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			ks, err := LoadKeyset(path)
			assert.ErrorIs(t, err, tt.expectedErr)
			if tt.expectedErr == nil {
				assert.Equal(t, tt.expectedName, ks.Name())
				assert.Equal(t, tt.expectedSize, ks.Size())
				assert.True(t, ks.Recognizes(fullBeacon(a)))
			}
		})
	}

	_, err := LoadKeyset(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrReadCredential)
}
