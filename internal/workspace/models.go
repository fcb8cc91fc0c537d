package workspace

// RepositoryHandle describes the working copy after bootstrap.
type RepositoryHandle struct {
	Path       string
	RemoteName string
	RemoteURL  string // empty when no remote is configured

	Initialized        bool
	RemoteConfigured   bool
	IdentityConfigured bool
}
