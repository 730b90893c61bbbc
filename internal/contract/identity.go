// Package contract encodes the access-control and validation contract of the
// storefront API: the mapping from (operation, caller identity, resource
// state) to the HTTP outcome the backend must produce.
//
// The matrix is kept as explicit enumerations and exhaustive switches rather
// than nested conditionals so that every identity × liveness combination is
// enumerable and testable.
package contract

import "fmt"

// Identity is the role under which a request is authenticated.
type Identity string

const (
	// Anonymous carries no Authorization header.
	Anonymous Identity = "anonymous"

	// Client is an authenticated customer. Clients can read the catalog and
	// their own orders, but cannot mutate the catalog.
	Client Identity = "client"

	// Admin is an authenticated operator with full access.
	Admin Identity = "admin"

	// InvalidToken is a syntactically well-formed bearer token that fails
	// server-side verification. Derived by corrupting a valid token.
	InvalidToken Identity = "invalid_token"
)

// Identities lists every identity class, in declaration order.
var Identities = []Identity{Anonymous, Client, Admin, InvalidToken}

// ParseIdentity validates an identity name from a scenario file.
func ParseIdentity(s string) (Identity, error) {
	switch Identity(s) {
	case Anonymous, Client, Admin, InvalidToken:
		return Identity(s), nil
	}
	return "", fmt.Errorf("unknown identity %q (want one of %v)", s, Identities)
}

// Authenticated reports whether the identity presents a verifiable token.
func (id Identity) Authenticated() bool {
	return id == Client || id == Admin
}
