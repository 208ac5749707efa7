package models

// Principal is the authenticated actor attached to a request by the auth
// middleware. Edits are attributed to it in the change log.
type Principal struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
