package karaf

import (
	"context"
	"errors"

	"github.com/Lambeaux/steadfast/internal/ir"
)

// InstallFeature runs feature:install. Shell failures become failed
// outcomes carrying the shell's message for diagnosis.
func (c *Client) InstallFeature(ctx context.Context, id string) ir.InstallOutcome {
	_, err := c.Execute(ctx, "feature:install "+id)
	if err == nil {
		return ir.Succeeded()
	}
	var serr *ShellError
	if errors.As(err, &serr) && serr.Output != "" {
		return ir.Failed(serr.Output)
	}
	return ir.Failed(err.Error())
}
