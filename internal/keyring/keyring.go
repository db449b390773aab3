// Package keyring keeps one sealing password per bootdb database in the OS
// keyring. Entries are keyed by the hex owner id from the database header, so
// a cleared database (new owner id) no longer finds its old entry.
package keyring

import (
	"github.com/zalando/go-keyring"
)

const serviceName = "bootdb"

// SavePassword stores the password for the database with ownerID,
// replacing any previous entry
func SavePassword(ownerID string, password string) error {
	return keyring.Set(serviceName, ownerID, password)
}

// GetPassword returns the stored password for ownerID. Callers verify it
// against a sealed record before use, the entry may be stale.
func GetPassword(ownerID string) (string, error) {
	return keyring.Get(serviceName, ownerID)
}

// DeletePassword removes the entry for ownerID
func DeletePassword(ownerID string) error {
	return keyring.Delete(serviceName, ownerID)
}

// HasPassword reports whether ownerID has an entry
func HasPassword(ownerID string) bool {
	_, err := keyring.Get(serviceName, ownerID)
	return err == nil
}
