package dropsdk

import (
	"context"
)

// MaxRevisionPageSize is the server-side cap on revisions per page.
const MaxRevisionPageSize = 100

type listRevisionsArg struct {
	Path      string `json:"path"`
	Mode      string `json:"mode"`
	Limit     int    `json:"limit"`
	BeforeRev string `json:"before_rev,omitempty"`
}

// ListRevisions fetches up to limit revisions of path, newest first. A
// non-empty beforeRev returns only revisions older than it, which is how
// callers page through deep histories.
func (c *Client) ListRevisions(ctx context.Context, path string, limit int, beforeRev string) (*RevisionPage, error) {
	limit = max(1, min(limit, MaxRevisionPageSize))

	var page RevisionPage
	resp, err := c.rpc.R().
		SetContext(ctx).
		SetBody(&listRevisionsArg{
			Path:      path,
			Mode:      "path",
			Limit:     limit,
			BeforeRev: beforeRev,
		}).
		SetSuccessResult(&page).
		Post("/files/list_revisions")

	if err := apiError("list revisions", resp, err); err != nil {
		return nil, err
	}
	return &page, nil
}

// RestoreRevision asks the remote to overwrite the current content of path
// with the given historical revision. Restoring the same revision twice is
// idempotent on the content.
func (c *Client) RestoreRevision(ctx context.Context, path, rev string) (*Metadata, error) {
	var meta Metadata
	resp, err := c.rpc.R().
		SetContext(ctx).
		SetBody(map[string]string{"path": path, "rev": rev}).
		SetSuccessResult(&meta).
		Post("/files/restore")

	if err := apiError("restore revision", resp, err); err != nil {
		return nil, err
	}
	return &meta, nil
}
