package git

import "time"

type AuthConfig struct {
	SSH   SSHAuthConfig
	HTTPS HTTPSAuthConfig
}

type SSHAuthConfig struct {
	PrivateKey string
	Passphrase string
}

type HTTPSAuthConfig struct {
	Username string
	Token    string
}

type Config struct {
	// Path is the working copy every operation is bound to.
	Path       string
	RemoteName string
	// Branch to pull and push; empty means the branch HEAD points to.
	Branch string
	// Binary is the git executable used for operations go-git lacks.
	Binary  string
	Timeout time.Duration
	Auth    AuthConfig
}
