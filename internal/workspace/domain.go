package workspace

import "context"

// VCS is the subset of the version control client the bootstrapper needs.
type VCS interface {
	HasLocalMetadata() bool
	Init(ctx context.Context) error
	HasRemote(ctx context.Context, name string) (bool, error)
	AddRemote(ctx context.Context, name, url string) error
	SetConfig(ctx context.Context, section, key, value string) error
}
