package legifrance

import (
	"context"
	"time"
)

// GetCode returns the content of a code for the given version date
// (today when date is empty).
func (c *Client) GetCode(ctx context.Context, textID, date string) (map[string]any, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return c.post(ctx, "/consult/code", map[string]any{
		"textId": textID,
		"date":   date,
	})
}

// GetArticle returns the content of a single article by its LEGIARTI id.
func (c *Client) GetArticle(ctx context.Context, articleID string) (map[string]any, error) {
	return c.post(ctx, "/consult/getArticle", map[string]any{
		"id": articleID,
	})
}

// GetJORF returns the content of a Journal Officiel text by its CID.
func (c *Client) GetJORF(ctx context.Context, textCID string) (map[string]any, error) {
	return c.post(ctx, "/consult/jorf", map[string]any{
		"textCid": textCID,
	})
}

// GetLawDecree returns the content of a LODA text (autonomous laws and
// decrees) for the given version date.
func (c *Client) GetLawDecree(ctx context.Context, textID, date string) (map[string]any, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return c.post(ctx, "/consult/lawDecree", map[string]any{
		"textId": textID,
		"date":   date,
	})
}
