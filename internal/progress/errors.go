package progress

import "errors"

var (
	// ErrNoSession is the one failure callers must handle: without a user
	// there is nowhere to store anything.
	ErrNoSession = errors.New("no active user session")

	// ErrNotRegistered rejects migration into a guest identity.
	ErrNotRegistered = errors.New("target session is not a registered user")

	ErrEmptyBlock = errors.New("block is required")

	// ErrLocalNewer marks a read that kept a pending local record because it
	// is newer than the copy the remote store returned.
	ErrLocalNewer = errors.New("local record is newer than remote copy")
)

// errNoRemote stands in for a remote failure when the store was built
// without a remote service.
var errNoRemote = errors.New("remote store not configured")
