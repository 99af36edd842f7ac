package vcs

import "errors"

// SSHKeyProvider supplies a fixed, passphrase-less private key, using the
// username embedded in the remote URL. A passphrase-protected key will
// fail authentication downstream.
type SSHKeyProvider struct {
	KeyPath string
}

// Provide returns the key credential. When the URL carries no username,
// "git" is assumed.
func (p SSHKeyProvider) Provide(url, usernameHint string) (Credential, error) {
	if p.KeyPath == "" {
		return Credential{}, errors.New("no ssh key configured")
	}
	user := usernameHint
	if user == "" {
		user = "git"
	}
	return Credential{Username: user, PrivateKeyPath: p.KeyPath}, nil
}
