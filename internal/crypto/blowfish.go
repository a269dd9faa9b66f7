// Package crypto provides the Blowfish ECB cipher used by internal/ingest
// to replay a recorded, encrypted packet capture through the
// protocol.PacketSource interface. Real-time decryption of the live game
// protocol is an out-of-scope external collaborator (spec.md §1); this
// package gives that collaborator's capture-replay adapter something
// concrete to call.
package crypto

import (
	"fmt"

	"golang.org/x/crypto/blowfish"
)

const blowfishBlockSize = 8

// BlowfishCipher wraps Blowfish ECB encryption/decryption for capture
// replay. Capture files are encrypted with a single static key chosen at
// record time, unlike the live protocol's per-session key exchange.
type BlowfishCipher struct {
	cipher *blowfish.Cipher
}

// NewBlowfishCipher creates a new Blowfish ECB cipher from the given key.
func NewBlowfishCipher(key []byte) (*BlowfishCipher, error) {
	c, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating blowfish cipher: %w", err)
	}
	return &BlowfishCipher{cipher: c}, nil
}

// Decrypt decrypts data in-place using Blowfish ECB mode.
// size must be a multiple of 8 and offset+size must not exceed len(data).
func (b *BlowfishCipher) Decrypt(data []byte, offset, size int) error {
	if size%blowfishBlockSize != 0 {
		return fmt.Errorf("blowfish decrypt: size %d is not a multiple of %d", size, blowfishBlockSize)
	}
	if offset+size > len(data) {
		return fmt.Errorf("blowfish decrypt: offset %d + size %d exceeds data length %d", offset, size, len(data))
	}
	for i := offset; i < offset+size; i += blowfishBlockSize {
		b.cipher.Decrypt(data[i:i+blowfishBlockSize], data[i:i+blowfishBlockSize])
	}
	return nil
}

// Encrypt encrypts data in-place using Blowfish ECB mode. Used only by
// tooling that produces capture fixtures for internal/ingest's tests.
func (b *BlowfishCipher) Encrypt(data []byte, offset, size int) error {
	if size%blowfishBlockSize != 0 {
		return fmt.Errorf("blowfish encrypt: size %d is not a multiple of %d", size, blowfishBlockSize)
	}
	if offset+size > len(data) {
		return fmt.Errorf("blowfish encrypt: offset %d + size %d exceeds data length %d", offset, size, len(data))
	}
	for i := offset; i < offset+size; i += blowfishBlockSize {
		b.cipher.Encrypt(data[i:i+blowfishBlockSize], data[i:i+blowfishBlockSize])
	}
	return nil
}
