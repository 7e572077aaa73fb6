package builtin

import "context"

// pingHandler answers the health-check builtin command.
func pingHandler(ctx context.Context, args map[string]any) (string, error) {
	return "Pong", nil
}
