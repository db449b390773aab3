package core

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/illarion/bootdb/internal/bootdb"
	"github.com/illarion/bootdb/internal/crypto"
)

const DefaultKeySize = 32

// MaxKeySize returns the largest payload a slot holds, sealed or not
func MaxKeySize(sealed bool) int {
	if sealed {
		return bootdb.BlockSize - crypto.SealOverhead
	}
	return bootdb.BlockSize
}

// Generate fills a slot with size random bytes.
// The material is sealed under password when password is non-nil.
func (s *Store) Generate(t bootdb.RecordType, size int, password []byte) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	if size <= 0 || size > MaxKeySize(password != nil) {
		return fmt.Errorf("%w: %d (max %d)", ErrInvalidKeySize, size, MaxKeySize(password != nil))
	}

	material, err := crypto.GenerateRandom(size)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(material)

	return s.put(t, material, password)
}

// put writes plaintext, sealing it first when password is non-nil
func (s *Store) put(t bootdb.RecordType, plaintext, password []byte) error {
	data := plaintext
	if password != nil {
		sealed, err := crypto.Seal(password, plaintext, s.iterations)
		if err != nil {
			return err
		}
		data = sealed
	}
	if err := s.db.WriteRecord(t, data); err != nil {
		return err
	}
	s.logger.Info("key material stored", "type", t.String(), "length", len(plaintext), "sealed", password != nil)
	return nil
}

// GenerateIdentity creates an Ed25519 master key pair. The 32-byte seed goes
// to MasterPrivateKey (sealed when password is non-nil) and the public key to
// MasterPublicKey.
func (s *Store) GenerateIdentity(password []byte) (ed25519.PublicKey, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate identity: %w", err)
	}
	defer crypto.ClearBytes(priv)

	seed := priv.Seed()
	defer crypto.ClearBytes(seed)

	if err := s.put(bootdb.MasterPrivateKey, seed, password); err != nil {
		return nil, err
	}
	if err := s.db.WriteRecord(bootdb.MasterPublicKey, pub); err != nil {
		return nil, err
	}
	return pub, nil
}

// HasIdentity reports whether MasterPublicKey holds a non-zero key
func (s *Store) HasIdentity() (bool, error) {
	if err := s.requireOpen(); err != nil {
		return false, err
	}
	pub, err := s.db.ReadRecordN(bootdb.MasterPublicKey, ed25519.PublicKeySize)
	if err != nil {
		return false, err
	}
	return !isZero(pub), nil
}

// Identity loads the master key pair and checks it against MasterPublicKey.
// password is required when the private key is sealed.
func (s *Store) Identity(password []byte) (ed25519.PrivateKey, error) {
	seed, err := s.material(bootdb.MasterPrivateKey, ed25519.SeedSize, password)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(seed)
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: master private key is %d bytes", ErrInvalidKeySize, len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub, err := s.db.ReadRecordN(bootdb.MasterPublicKey, ed25519.PublicKeySize)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(pub, priv.Public().(ed25519.PublicKey)) {
		crypto.ClearBytes(priv)
		return nil, ErrIdentityMismatch
	}
	return priv, nil
}

// material returns the key material in a slot: unsealed plaintext when sealed,
// otherwise the first n bytes.
func (s *Store) material(t bootdb.RecordType, n int, password []byte) ([]byte, error) {
	sealed, err := s.IsSealed(t)
	if err != nil {
		return nil, err
	}
	if sealed {
		if password == nil {
			return nil, ErrPasswordRequired
		}
		return s.Unseal(t, password)
	}
	data, err := s.db.ReadRecordN(t, n)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || isZero(data) {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRecord, t)
	}
	return data, nil
}

// IsSealed reports whether a slot holds a sealed envelope
func (s *Store) IsSealed(t bootdb.RecordType) (bool, error) {
	if err := s.requireOpen(); err != nil {
		return false, err
	}
	data, err := s.db.ReadRecord(t)
	if err != nil {
		return false, err
	}
	return crypto.IsSealed(data), nil
}

// Unseal decrypts a sealed slot
func (s *Store) Unseal(t bootdb.RecordType, password []byte) ([]byte, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	data, err := s.db.ReadRecord(t)
	if err != nil {
		return nil, err
	}
	if !crypto.IsSealed(data) {
		return nil, fmt.Errorf("%w: %s", ErrNotSealed, t)
	}

	plaintext, err := crypto.Unseal(password, data)
	if errors.Is(err, crypto.ErrAuthFailed) {
		return nil, ErrWrongPassword
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unseal %s: %w", t, err)
	}
	return plaintext, nil
}

// VerifyPassword checks password against a sealed slot
func (s *Store) VerifyPassword(t bootdb.RecordType, password []byte) error {
	plaintext, err := s.Unseal(t, password)
	if err != nil {
		return err
	}
	crypto.ClearBytes(plaintext)
	return nil
}

// ChangePassword re-seals a slot under a new password with a fresh salt
func (s *Store) ChangePassword(t bootdb.RecordType, currentPassword, newPassword []byte) error {
	plaintext, err := s.Unseal(t, currentPassword)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(plaintext)

	return s.put(t, plaintext, newPassword)
}

// SealedSlots returns the slots that hold sealed envelopes
func (s *Store) SealedSlots() ([]bootdb.RecordType, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	slots, err := s.db.Slots()
	if err != nil {
		return nil, err
	}
	var sealed []bootdb.RecordType
	for i := 0; i < slots; i++ {
		ok, err := s.IsSealed(bootdb.RecordType(i))
		if err != nil {
			return nil, err
		}
		if ok {
			sealed = append(sealed, bootdb.RecordType(i))
		}
	}
	return sealed, nil
}

// SlotsNotOpenedBy returns the sealed slots that password does not unseal.
// An empty result means password opens every sealed slot.
func (s *Store) SlotsNotOpenedBy(password []byte) ([]bootdb.RecordType, error) {
	sealed, err := s.SealedSlots()
	if err != nil {
		return nil, err
	}
	var others []bootdb.RecordType
	for _, t := range sealed {
		err := s.VerifyPassword(t, password)
		if errors.Is(err, ErrWrongPassword) {
			others = append(others, t)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return others, nil
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
