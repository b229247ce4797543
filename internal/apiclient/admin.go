package apiclient

import (
	"context"
	"net/http"
)

func (c *Client) AdminStats(ctx context.Context) (UserStats, error) {
	var out UserStats
	err := c.sendJSON(ctx, c.api, http.MethodGet, "/admin/stats", nil, &out)
	return out, err
}
