package auth

// TokenManager abstracts bearer token issuance and verification.
// The subject carried by a token is the user's email.
type TokenManager interface {
	Issue(email string) (string, error)
	Verify(token string) (string, error)
}
