package crypto

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Sealed envelope layout:
//
//	[0:4]   magic "BDS\x01"
//	[4:8]   PBKDF2 iterations, big endian
//	[8:24]  salt
//	[24:26] sealed length (nonce + ciphertext + tag), big endian
//	[26:]   nonce || ciphertext || tag
//
// Bytes [0:26] are authenticated as additional data. Anything after the
// sealed length is ignored, so a zero-padded record slot opens cleanly.
const (
	envelopeHeaderSize = 4 + 4 + SaltSize + 2

	// SealOverhead is the number of bytes sealing adds to a plaintext.
	SealOverhead = envelopeHeaderSize + NonceSize + TagSize
)

var sealMagic = []byte{'B', 'D', 'S', 0x01}

var (
	ErrNotSealed    = errors.New("data is not sealed")
	ErrTooManyIters = errors.New("iteration count does not fit the envelope")
)

// IsSealed reports whether data starts with a sealed envelope.
func IsSealed(data []byte) bool {
	return len(data) >= SealOverhead && bytes.Equal(data[:len(sealMagic)], sealMagic)
}

// Seal encrypts plaintext under a key derived from password.
// iterations <= 0 selects DefaultIters.
func Seal(password, plaintext []byte, iterations int) ([]byte, error) {
	if int64(iterations) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d", ErrTooManyIters, iterations)
	}
	kdf, err := NewKDF(iterations)
	if err != nil {
		return nil, err
	}

	key := kdf.DeriveKey(password)
	defer ClearBytes(key)

	enc := NewEncryptor(key)
	defer enc.Destroy()

	header := make([]byte, envelopeHeaderSize)
	copy(header, sealMagic)
	binary.BigEndian.PutUint32(header[4:8], uint32(kdf.Iterations))
	copy(header[8:8+SaltSize], kdf.Salt)
	binary.BigEndian.PutUint16(header[8+SaltSize:], uint16(NonceSize+len(plaintext)+TagSize))

	sealed, err := enc.Encrypt(plaintext, header)
	if err != nil {
		return nil, fmt.Errorf("failed to seal: %w", err)
	}
	return append(header, sealed...), nil
}

// Unseal opens an envelope produced by Seal.
func Unseal(password, envelope []byte) ([]byte, error) {
	if !IsSealed(envelope) {
		return nil, ErrNotSealed
	}

	header := envelope[:envelopeHeaderSize]
	iterations := binary.BigEndian.Uint32(header[4:8])
	length := int(binary.BigEndian.Uint16(header[8+SaltSize:]))
	if iterations == 0 || length < NonceSize+TagSize || envelopeHeaderSize+length > len(envelope) {
		return nil, ErrInvalidCiphertext
	}

	kdf := &KDF{
		Salt:       append([]byte(nil), header[8:8+SaltSize]...),
		Iterations: int(iterations),
	}
	key := kdf.DeriveKey(password)
	defer ClearBytes(key)

	enc := NewEncryptor(key)
	defer enc.Destroy()

	return enc.Decrypt(envelope[envelopeHeaderSize:envelopeHeaderSize+length], header)
}

// SealedIterations returns the PBKDF2 iteration count recorded in an envelope.
func SealedIterations(envelope []byte) (int, error) {
	if !IsSealed(envelope) {
		return 0, ErrNotSealed
	}
	return int(binary.BigEndian.Uint32(envelope[4:8])), nil
}
