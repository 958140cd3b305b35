// Package entity contains the core business objects of the project.
package entity

// Origin represents how an identity authenticates with the system.
type Origin string

const (
	// OriginLocal indicates an identity registered with an email and password.
	OriginLocal Origin = "local"
	// OriginFederated indicates an identity created from an external identity provider.
	OriginFederated Origin = "federated"
)

// String returns the string representation of the Origin.
func (o Origin) String() string {
	return string(o)
}

// IsValid checks if the Origin is a valid value.
func (o Origin) IsValid() bool {
	switch o {
	case OriginLocal, OriginFederated:
		return true
	default:
		return false
	}
}
