package workspace

import "errors"

var (
	ErrDirectoryFailed    = errors.New("failed to create working directory")
	ErrInitFailed         = errors.New("failed to initialize repository")
	ErrRemoteRegistration = errors.New("failed to register remote")
	ErrIdentityConfig     = errors.New("failed to configure committer identity")
)
