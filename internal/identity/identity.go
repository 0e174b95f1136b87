// Package identity implements the credential primitives of walletd.
//
// It provides:
//   - TokenIssuer:  issues and verifies HS256 JWT session tokens
//   - BcryptHasher: one-way secret hashing and verification
//   - RequireToken: Gin middleware enforcing a valid session token
package identity
