package radio

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// nonce builds the 16-byte AES-CTR nonce: packet id as little-endian 32 bits
// at offset 0, the sending node at offset 8, zeros elsewhere.
func nonce(packetID, fromNode uint32) []byte {
	n := make([]byte, 16)
	binary.LittleEndian.PutUint32(n[0:4], packetID)
	binary.LittleEndian.PutUint32(n[8:12], fromNode)
	return n
}

// XOR runs AES-CTR over data with the given raw key and packet-derived nonce.
// CTR mode is its own inverse, so the same call encrypts and decrypts.
func XOR(data []byte, key []byte, packetID, fromNode uint32) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	out := make([]byte, len(data))
	cipher.NewCTR(block, nonce(packetID, fromNode)).XORKeyStream(out, data)
	return out, nil
}

// Encrypt encrypts a plaintext Data payload under the base64 PSK. A key that
// expands to zero bytes is an error; the caller asked for encryption.
func Encrypt(plaintext []byte, key string, packetID, fromNode uint32) ([]byte, error) {
	expanded, err := ExpandPSK(key)
	if err != nil {
		return nil, err
	}
	if len(expanded) == 0 {
		return nil, ErrNoKey
	}
	return XOR(plaintext, expanded, packetID, fromNode)
}

// Decrypt decrypts ciphertext under the base64 PSK. A key that expands to
// zero bytes leaves the bytes untouched. CTR never fails on its own; whether
// the output is meaningful is discovered by decoding it as Data.
func Decrypt(ciphertext []byte, key string, packetID, fromNode uint32) ([]byte, error) {
	expanded, err := ExpandPSK(key)
	if err != nil {
		return nil, err
	}
	if len(expanded) == 0 {
		out := make([]byte, len(ciphertext))
		copy(out, ciphertext)
		return out, nil
	}
	return XOR(ciphertext, expanded, packetID, fromNode)
}

// GeneratePacketID returns a fresh random packet identifier.
func GeneratePacketID() uint32 {
	var b [4]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			panic(fmt.Sprintf("reading random bytes: %v", err))
		}
		if id := binary.LittleEndian.Uint32(b[:]); id != 0 {
			return id
		}
	}
}
