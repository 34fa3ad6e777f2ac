package entity

// User - an opaque, already-authenticated identity reference. Identity
// is owned by an external collaborator; the engine never validates it.
type User struct {
	ID string `json:"id"`
}
