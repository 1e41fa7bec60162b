package devices

import "context"

type Repository interface {
	// Register stores the (user_id, reg_id) pair; registering an existing
	// pair is a no-op.
	Register(ctx context.Context, userID, regID string) error

	// List returns a snapshot of the user's registration ids.
	List(ctx context.Context, userID string) ([]string, error)

	// Replace swaps oldID for newID. When oldID is absent the call is a
	// no-op: provider feedback may race the client's own re-registration.
	// Should run inside a transaction because the swap takes two statements.
	Replace(ctx context.Context, userID, oldID, newID string) error

	// Remove drops the pair; removing an absent pair is a no-op.
	Remove(ctx context.Context, userID, regID string) error
}
