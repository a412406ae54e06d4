// Package auth implements authentication and authorisation for Taskforge Core.
//
// It owns the process RSA key pair, JWT issuance and validation, password
// hashing, the request-scoped identity, the role policy table, and the
// SQLite-backed user store. Tokens are stateless: the only revocation
// mechanism is their short lifetime.
package auth
