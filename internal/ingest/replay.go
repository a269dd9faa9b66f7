// Package ingest provides a concrete protocol.PacketSource that replays
// a recorded capture file. Real-time packet capture and decryption of
// the live game protocol is an out-of-scope external collaborator
// (spec.md §1); this adapter gives that collaborator's replay/testing
// path one real implementation, grounded on the teacher's
// internal/protocol.ReadPacket length-header idiom and
// internal/crypto's Blowfish cipher.
package ingest

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/udisondev/raidtrack/internal/crypto"
	"github.com/udisondev/raidtrack/internal/protocol"
)

// Frame layout in a capture file, one per packet:
//
//	[2 bytes LE frame length][2 bytes LE opcode][2 bytes LE payload length][encrypted, 8-byte-padded payload]
//
// frame length counts everything after itself (opcode + payload length +
// padded payload). The padding exists because Blowfish ECB only
// operates on whole 8-byte blocks; payload length lets Recv trim the
// padding back off after decryption so json.Unmarshal doesn't choke on
// trailing zero bytes.
const frameHeaderSize = 6

// Replay is a protocol.PacketSource that reads capture frames from an
// io.Reader, Blowfish-decrypting each payload with a single static key
// chosen at record time.
type Replay struct {
	r      io.Reader
	cipher *crypto.BlowfishCipher
	buf    []byte
}

// NewReplay wraps r, decrypting each frame's payload with key.
func NewReplay(r io.Reader, key []byte) (*Replay, error) {
	c, err := crypto.NewBlowfishCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	return &Replay{r: r, cipher: c, buf: make([]byte, 64*1024)}, nil
}

// Recv reads and decrypts the next frame. Returns io.EOF when the
// capture is exhausted.
func (rp *Replay) Recv(ctx context.Context) (protocol.Packet, error) {
	select {
	case <-ctx.Done():
		return protocol.Packet{}, ctx.Err()
	default:
	}

	var lenHeader [2]byte
	if _, err := io.ReadFull(rp.r, lenHeader[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return protocol.Packet{}, io.EOF
		}
		return protocol.Packet{}, err
	}
	frameLen := int(binary.LittleEndian.Uint16(lenHeader[:]))
	if frameLen < 4 {
		return protocol.Packet{}, fmt.Errorf("ingest: invalid frame length %d", frameLen)
	}

	if cap(rp.buf) < frameLen {
		rp.buf = make([]byte, frameLen)
	}
	body := rp.buf[:frameLen]
	if _, err := io.ReadFull(rp.r, body); err != nil {
		return protocol.Packet{}, fmt.Errorf("ingest: reading frame body: %w", err)
	}

	opcode := protocol.Opcode(binary.LittleEndian.Uint16(body[:2]))
	payloadLen := int(binary.LittleEndian.Uint16(body[2:4]))
	padded := body[4:]

	if len(padded)%8 != 0 {
		return protocol.Packet{}, fmt.Errorf("ingest: padded payload length %d is not a Blowfish block multiple", len(padded))
	}
	if payloadLen > len(padded) {
		return protocol.Packet{}, fmt.Errorf("ingest: declared payload length %d exceeds frame %d", payloadLen, len(padded))
	}
	if len(padded) > 0 {
		if err := rp.cipher.Decrypt(padded, 0, len(padded)); err != nil {
			return protocol.Packet{}, fmt.Errorf("ingest: decrypting frame: %w", err)
		}
	}

	out := make([]byte, payloadLen)
	copy(out, padded[:payloadLen])
	return protocol.Packet{Opcode: opcode, Payload: out}, nil
}

// WriteFrame encodes and Blowfish-encrypts one packet into w, using the
// same framing Recv expects. Used by capture-fixture tooling and tests.
func WriteFrame(w io.Writer, key []byte, opcode protocol.Opcode, payload []byte) error {
	c, err := crypto.NewBlowfishCipher(key)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	paddedLen := len(payload)
	if rem := paddedLen % 8; rem != 0 {
		paddedLen += 8 - rem
	}
	padded := make([]byte, paddedLen)
	copy(padded, payload)
	if len(padded) > 0 {
		if err := c.Encrypt(padded, 0, len(padded)); err != nil {
			return fmt.Errorf("ingest: encrypting frame: %w", err)
		}
	}

	body := make([]byte, 4+len(padded))
	binary.LittleEndian.PutUint16(body[:2], uint16(opcode))
	binary.LittleEndian.PutUint16(body[2:4], uint16(len(payload)))
	copy(body[4:], padded)

	var lenHeader [2]byte
	binary.LittleEndian.PutUint16(lenHeader[:], uint16(len(body)))
	if _, err := w.Write(lenHeader[:]); err != nil {
		return fmt.Errorf("ingest: writing frame header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("ingest: writing frame body: %w", err)
	}
	return nil
}
