package interfaces

import (
	"context"

	domaintypes "otkeys/internal/domain/types"
)

// Directory is where one-time public keys are published for peers to fetch.
type Directory interface {
	PublishOneTimeKeys(
		ctx context.Context,
		username domaintypes.Username,
		keys []domaintypes.OneTimeKey,
	) error
}

// DirectoryClient extends Directory with the peer-side operations.
type DirectoryClient interface {
	Directory
	ClaimOneTimeKey(
		ctx context.Context,
		username domaintypes.Username,
	) (domaintypes.OneTimeKey, error)
	CountOneTimeKeys(ctx context.Context, username domaintypes.Username) (int, error)
}
