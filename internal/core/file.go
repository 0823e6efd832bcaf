package core

import "time"

const folderMimeType = "application/vnd.google-apps.folder"

// FileEntry is a remote-origin record owned by the backend. The client keeps
// a read-mostly copy per session, invalidated wholesale on provider switch,
// search, upload or delete.
//
// ID semantics differ per provider: a stable identifier for Google Drive, a
// lowercased path for Dropbox (PathLower carries it too).
type FileEntry struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	PathLower    string    `json:"path_lower,omitempty"`
	Size         *int64    `json:"size"`
	ModifiedTime time.Time `json:"modifiedTime"`
	WebViewLink  string    `json:"webViewLink,omitempty"`
	DownloadLink string    `json:"downloadLink,omitempty"`
}

func (f FileEntry) IsFolder() bool {
	return f.MimeType == folderMimeType || f.MimeType == "folder"
}

// DocumentID is the identifier the chatbot endpoints expect: the stable ID
// for Google Drive, the lowercased path (or "/<name>") for Dropbox.
func (f FileEntry) DocumentID(provider Provider) string {
	if provider == ProviderDropbox {
		if f.PathLower != "" {
			return f.PathLower
		}
		return "/" + f.Name
	}
	return f.ID
}

// Stats is a pure fold over the current file collection. It is recomputed
// synchronously whenever the collection changes and never persisted.
type Stats struct {
	TotalSize    int64
	TotalFiles   int
	TotalFolders int
	RecentFiles  int
}
