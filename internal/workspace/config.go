package workspace

type IdentityConfig struct {
	Name  string
	Email string
}

type Config struct {
	Path       string
	RemoteName string
	RemoteURL  string
	Identity   IdentityConfig
}
