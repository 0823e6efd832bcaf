package cloud

import (
	"time"

	"github.com/venrik/skydeck/internal/core"
)

// ComputeStats folds the file collection into aggregate numbers. A nil size
// contributes nothing to the total; folders count separately from files;
// "recent" means modified since local midnight of now.
func ComputeStats(files []core.FileEntry, now time.Time) core.Stats {
	var stats core.Stats

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, file := range files {
		if file.Size != nil {
			stats.TotalSize += *file.Size
		}

		if file.IsFolder() {
			stats.TotalFolders++
		} else {
			stats.TotalFiles++
		}

		if !file.ModifiedTime.Before(midnight) {
			stats.RecentFiles++
		}
	}

	return stats
}
