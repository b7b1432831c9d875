// Package session provides the authentication session store.
package session

// Transition represents an authentication state change.
type Transition int

const (
	LoggedOut Transition = iota // Session ended or token rejected
	LoggedIn                    // Profile fetched with a valid token
)

// String returns the string representation of the transition.
func (t Transition) String() string {
	switch t {
	case LoggedOut:
		return "logged_out"
	case LoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}
