package user

// User is the already-verified identity supplied by the external identity provider.
// The ledger never authenticates; it only reads the stable id and the display name.
type User struct {
	Id          string
	DisplayName string
}
