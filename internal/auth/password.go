package auth

import "golang.org/x/crypto/bcrypt"

// HashCredential hashes a credential for storage in the user registry.
// The credential is hashed at registration so no plaintext is ever persisted;
// login does not verify it (the auth flow is simulated, not a real identity
// system).
func HashCredential(credential string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
