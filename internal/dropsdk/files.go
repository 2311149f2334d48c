package dropsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CreateFolder ensures the remote folder exists. A conflict (folder already
// there) counts as success.
func (c *Client) CreateFolder(ctx context.Context, path string) error {
	resp, err := c.rpc.R().
		SetContext(ctx).
		SetBody(map[string]any{"path": path, "autorename": false}).
		Post("/files/create_folder_v2")

	if err == nil && resp.StatusCode == 409 {
		return nil
	}
	return apiError("create folder", resp, err)
}

// ListFolder returns all entries under path, following the continuation
// cursor until the listing is exhausted.
func (c *Client) ListFolder(ctx context.Context, path string, recursive bool) ([]*Metadata, error) {
	var page listFolderResult

	resp, err := c.rpc.R().
		SetContext(ctx).
		SetBody(&listFolderArg{Path: path, Recursive: recursive}).
		SetSuccessResult(&page).
		Post("/files/list_folder")
	if err := apiError("list folder", resp, err); err != nil {
		return nil, err
	}

	entries := page.Entries
	for page.HasMore {
		var next listFolderResult
		resp, err := c.rpc.R().
			SetContext(ctx).
			SetBody(map[string]string{"cursor": page.Cursor}).
			SetSuccessResult(&next).
			Post("/files/list_folder/continue")
		if err := apiError("list folder continue", resp, err); err != nil {
			return nil, err
		}
		entries = append(entries, next.Entries...)
		page = next
	}

	return entries, nil
}

// Download fetches the file content at path along with its metadata.
func (c *Client) Download(ctx context.Context, path string) ([]byte, *Metadata, error) {
	resp, err := c.content.R().
		SetContext(ctx).
		SetHeader(headerAPIArg, apiArg(map[string]string{"path": path})).
		SetContentType("application/octet-stream").
		Post("/files/download")
	if err := apiError("download", resp, err); err != nil {
		return nil, nil, err
	}

	data, err := resp.ToBytes()
	if err != nil {
		return nil, nil, fmt.Errorf("download: read body: %w", err)
	}

	var meta Metadata
	if result := resp.Header.Get(headerAPIResult); result != "" {
		if err := json.Unmarshal([]byte(result), &meta); err != nil {
			return nil, nil, fmt.Errorf("download: decode result header: %w", err)
		}
	}

	return data, &meta, nil
}

// Upload transfers the local file to remotePath with overwrite semantics.
// Files at or below UploadChunkSize go in a single request; larger files use
// an upload session: one start, zero or more appends, one finish carrying
// the commit metadata.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("upload: stat: %w", err)
	}
	size := info.Size()

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("upload: open: %w", err)
	}
	defer file.Close()

	if size <= UploadChunkSize {
		return c.uploadSingle(ctx, file, remotePath)
	}
	return c.uploadSession(ctx, file, size, remotePath)
}

func (c *Client) uploadSingle(ctx context.Context, file io.Reader, remotePath string) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("upload: read: %w", err)
	}

	resp, err := c.content.R().
		SetContext(ctx).
		SetHeader(headerAPIArg, apiArg(&commitInfo{Path: remotePath, Mode: "overwrite"})).
		SetContentType("application/octet-stream").
		SetBodyBytes(data).
		Post("/files/upload")

	return apiError("upload", resp, err)
}

func (c *Client) uploadSession(ctx context.Context, file io.Reader, size int64, remotePath string) error {
	buf := make([]byte, UploadChunkSize)

	// First chunk opens the session.
	n, err := io.ReadFull(file, buf)
	if err != nil {
		return fmt.Errorf("upload session: read: %w", err)
	}

	var started struct {
		SessionID string `json:"session_id"`
	}
	resp, err := c.content.R().
		SetContext(ctx).
		SetHeader(headerAPIArg, apiArg(map[string]bool{"close": false})).
		SetContentType("application/octet-stream").
		SetBodyBytes(buf[:n]).
		SetSuccessResult(&started).
		Post("/files/upload_session/start")
	if err := apiError("upload session start", resp, err); err != nil {
		return err
	}

	cursor := sessionCursor{SessionID: started.SessionID, Offset: int64(n)}

	for cursor.Offset < size {
		remaining := size - cursor.Offset
		chunkLen := min(remaining, UploadChunkSize)

		n, err := io.ReadFull(file, buf[:chunkLen])
		if err != nil {
			return fmt.Errorf("upload session: read at %d: %w", cursor.Offset, err)
		}

		if remaining <= UploadChunkSize {
			// Last chunk rides along with the commit.
			slog.Debug("upload session finish", "path", remotePath, "offset", cursor.Offset)
			resp, err := c.content.R().
				SetContext(ctx).
				SetHeader(headerAPIArg, apiArg(map[string]any{
					"cursor": cursor,
					"commit": &commitInfo{Path: remotePath, Mode: "overwrite"},
				})).
				SetContentType("application/octet-stream").
				SetBodyBytes(buf[:n]).
				Post("/files/upload_session/finish")
			if err := apiError("upload session finish", resp, err); err != nil {
				return err
			}
		} else {
			slog.Debug("upload session append", "path", remotePath, "offset", cursor.Offset)
			resp, err := c.content.R().
				SetContext(ctx).
				SetHeader(headerAPIArg, apiArg(map[string]any{
					"cursor": cursor,
					"close":  false,
				})).
				SetContentType("application/octet-stream").
				SetBodyBytes(buf[:n]).
				Post("/files/upload_session/append_v2")
			if err := apiError("upload session append", resp, err); err != nil {
				return err
			}
		}

		cursor.Offset += int64(n)
	}

	return nil
}

// apiArg encodes the Dropbox-API-Arg header value.
func apiArg(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}
