// Package identity supplies the current user's opaque identifier and the
// bearer credential the row store is scoped by.
//
// The client core only ever sees the Provider interface; where the identity
// actually comes from (a parsed session token, a fixture in tests) is the
// caller's concern. Token issuing and validation live here too because the
// local server doubles as the identity issuer in development.
package identity

// Provider reports who the current user is. Both methods return false when
// the session is anonymous.
type Provider interface {
	UserID() (string, bool)
	DisplayName() (string, bool)
}

// Static is a fixed identity, used by tests and the CLI after sign-in.
type Static struct {
	ID   string
	Name string
}

func (s Static) UserID() (string, bool) {
	return s.ID, s.ID != ""
}

func (s Static) DisplayName() (string, bool) {
	return s.Name, s.Name != ""
}

// Anonymous is the no-user identity.
var Anonymous Provider = Static{}
