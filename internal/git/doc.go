// Package git provides git integration status checks for bootdb.
//
// Checks performed:
//   - Whether the database or archive file is tracked by git (should not be)
//   - Whether they are covered by .gitignore (should be)
//
// These checks help users avoid accidentally committing private keys.
package git
