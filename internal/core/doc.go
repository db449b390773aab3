// Package core provides the bootdb operations built on top of the raw
// record store.
//
// Core operations include:
//   - Init/Open: Create or open a database, repairing a damaged header
//   - Read/Write: Raw access to record slots
//   - Generate/GenerateIdentity: Fill slots with fresh key material, optionally sealed
//   - Unseal/ChangePassword: Decrypt or re-seal password-protected slots
//   - Snapshot/Restore/Forget/Diff: Point-in-time copies kept in a BBolt archive
//   - Status: Header, slot and git exposure report
package core
