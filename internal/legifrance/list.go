package legifrance

import "context"

// ListCodes returns the paginated list of available codes, in force and
// repealed.
func (c *Client) ListCodes(ctx context.Context, pageNumber, pageSize int) (map[string]any, error) {
	if pageNumber <= 0 {
		pageNumber = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return c.post(ctx, "/list/code", map[string]any{
		"pageNumber": pageNumber,
		"pageSize":   pageSize,
	})
}
