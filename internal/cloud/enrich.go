package cloud

import (
	"context"
	"log/slog"

	"github.com/venrik/skydeck/internal/core"
)

// enrichInBackground resolves download links for the fresh listing and
// forwards them to the indexing endpoint. Best-effort only: failures are
// logged and swallowed, and nothing here may touch files, connected or err.
func (s *Session) enrichInBackground(ctx context.Context, provider core.Provider, files []core.FileEntry) {
	if len(files) == 0 {
		return
	}

	links, err := s.api.BatchDownloadLinks(ctx, provider, files)
	if err != nil {
		slog.Warn("background link resolution failed", "provider", string(provider), "error", err)
		return
	}

	if len(links) == 0 {
		return
	}

	if err := s.api.UploadLinks(ctx, links); err != nil {
		slog.Warn("background link indexing failed", "provider", string(provider), "error", err)
	}
}
