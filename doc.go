// Package identity issues and verifies credentials for a client population:
// it registers accounts with a bcrypt-hashed secret, authenticates returning
// users, and mints a time-bounded HS256 JWT that downstream routes can trust
// without re-contacting the credential store.
//
// Flows:
//   - RegisterUserHandler validates input, checks username uniqueness, and
//     persists a hashed secret inside a transaction. A unique-constraint
//     violation at write time (a lost registration race) still surfaces as a
//     conflict, never as a generic fault.
//   - Auther.Login verifies credentials through an IdentityProvider and
//     returns a signed token with a fixed TTL. No token is issued at
//     registration; users log in separately.
//   - TokenService.Validate checks signature and expiry and recovers the
//     claims. Verification is stateless; the token is a bearer capability,
//     not a session pointer.
//
// The HTTP surface lives in http.go and http_controller.go; the protected
// route guard is middleware/jwtware. Wire everything together the way
// cmd/identityd does.
package identity
