// Package domain contains entities without transport logic: identities, room
// names and messages, plus the validation rules that guard them.
package domain

const MaxIdentityLen = 20

// Identity is the display name a connection joins a room under.
// It is not unique: two members of one room may share it.
type Identity string

// NewIdentity trims raw and checks it against the identity rules.
func NewIdentity(raw string) (Identity, error) {
	v, ok := clean(raw, identityRule)
	if !ok {
		return "", ErrInvalidIdentity
	}
	return Identity(v), nil
}
