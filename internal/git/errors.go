package git

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/transport"
)

var (
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrInvalidRepository  = errors.New("invalid repository")
	ErrInitFailed         = errors.New("failed to initialize repository")
	ErrRemoteFailed       = errors.New("failed to configure remote")
	ErrConfigFailed       = errors.New("failed to write repository config")
	ErrStatusFailed       = errors.New("failed to read working tree status")
	ErrStageFailed        = errors.New("failed to stage changes")
	ErrCommitFailed       = errors.New("failed to commit")
	ErrPullFailed         = errors.New("failed to pull repository")
	ErrPushFailed         = errors.New("failed to push repository")
	ErrMergeToolFailed    = errors.New("merge tool failed")
	ErrUnmergedPaths      = errors.New("merge conflict in")
	ErrTimeout            = errors.New("operation timeout")
)

// Kind is the class a failed operation falls into.
type Kind int

const (
	KindOther Kind = iota
	KindNetwork
	KindAuth
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindConflict:
		return "conflict"
	default:
		return "other"
	}
}

// Error is returned by every Service operation. Kind is decided once, when
// the error leaves the adapter.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	authSignatures = []string{
		"authentication failed",
		"authentication required",
		"authorization failed",
		"permission denied (publickey",
		"could not read username",
		"invalid username or password",
	}
	networkSignatures = []string{
		"could not resolve host",
		"connection refused",
		"connection timed out",
		"network is unreachable",
		"unable to access",
		"could not read from remote repository",
		"does not appear to be a git repository",
		"no such host",
	}
)

// Classify inspects an error produced by go-git or by the git binary.
//
// Conflicts are recognised by a case-insensitive "conflict" anywhere in the
// message and take precedence over every other signature.
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}

	detail := strings.ToLower(err.Error())
	if strings.Contains(detail, "conflict") {
		return KindConflict
	}

	if errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed) ||
		containsAny(detail, authSignatures) {
		return KindAuth
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, transport.ErrRepositoryNotFound) ||
		errors.Is(err, git.ErrRemoteNotFound) ||
		errors.Is(err, context.DeadlineExceeded) ||
		containsAny(detail, networkSignatures) {
		return KindNetwork
	}

	return KindOther
}

// KindOf returns the kind attached to err by the adapter, classifying
// untagged errors on the spot.
func KindOf(err error) Kind {
	var gitErr *Error
	if errors.As(err, &gitErr) {
		return gitErr.Kind
	}

	return Classify(err)
}

func newError(op string, sentinel, err error) error {
	return &Error{
		Op:   op,
		Kind: Classify(err),
		Err:  fmt.Errorf("%w: %w", sentinel, err),
	}
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}
