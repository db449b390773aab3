// Package crypto provides cryptographic operations for bootdb.
//
// Sealed records use AES-256-GCM with:
//   - 32-byte key derived from password via PBKDF2
//   - 12-byte random nonce per seal operation
//   - Envelope header (magic, iterations, salt, length) authenticated
//     as additional data
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 16-byte random salt stored in the envelope
//   - 210,000 iterations by default (OWASP minimum recommendation)
//
// A sealed envelope adds SealOverhead bytes, so a record slot holds at most
// BlockSize - SealOverhead bytes of sealed plaintext.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Encryptor.Destroy() when done with encryption operations
package crypto
