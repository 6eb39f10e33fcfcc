package ports

import "context"

// CommandExecutor runs the side effects named by command options and action nodes.
type CommandExecutor interface {
	// Execute runs command for userID and returns the continuation node id.
	// An empty continuation means "use the node's own successor".
	Execute(ctx context.Context, userID, command string) (string, error)
}
