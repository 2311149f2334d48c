package dropsdk

import "time"

// Account identifies the authenticated remote account.
type Account struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Name      struct {
		DisplayName string `json:"display_name"`
	} `json:"name"`
}

// Metadata describes a remote file or folder entry.
type Metadata struct {
	Tag            string    `json:".tag"`
	Name           string    `json:"name"`
	PathLower      string    `json:"path_lower"`
	PathDisplay    string    `json:"path_display"`
	Rev            string    `json:"rev,omitempty"`
	Size           int64     `json:"size,omitempty"`
	ServerModified time.Time `json:"server_modified,omitempty"`
	ContentHash    string    `json:"content_hash,omitempty"`
}

// IsFile reports whether the entry is a regular file (not a folder or a
// deletion marker).
func (m *Metadata) IsFile() bool {
	return m.Tag == "file"
}

type listFolderArg struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

type listFolderResult struct {
	Entries []*Metadata `json:"entries"`
	Cursor  string      `json:"cursor"`
	HasMore bool        `json:"has_more"`
}

// Revision is one stored historical version of a remote file, newest-first
// in listing order. Read-only: the client only ever asks for a restore.
type Revision struct {
	Rev            string    `json:"rev"`
	ServerModified time.Time `json:"server_modified"`
	Size           int64     `json:"size"`
	ContentHash    string    `json:"content_hash,omitempty"`
	PathDisplay    string    `json:"path_display,omitempty"`
}

// RevisionPage is one page of revision history.
type RevisionPage struct {
	Entries []*Revision `json:"entries"`
	HasMore bool        `json:"has_more"`
}

type sessionCursor struct {
	SessionID string `json:"session_id"`
	Offset    int64  `json:"offset"`
}

type commitInfo struct {
	Path       string `json:"path"`
	Mode       string `json:"mode"`
	Autorename bool   `json:"autorename"`
}
