package auth

// User is the subject of a verified bearer token. Email is empty when the
// token carries no email claim.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

type contextKey string

const UserContextKey contextKey = "user"
