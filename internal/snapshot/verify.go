package snapshot

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arjun-iyer/noteforge/internal/kbtypes"
)

// Verifier classifies documents as active or frozen depending on whether
// their originating source folder is currently reachable on disk.
type Verifier struct{}

// NewVerifier returns a Verifier.
func NewVerifier() *Verifier { return &Verifier{} }

// Verify checks each of sourceFolders for reachability, then transitions
// every document's Status by longest-prefix folder match: a document whose
// source folder is missing becomes frozen; a frozen document whose source
// folder has reappeared becomes active. Documents are mutated in place.
// Calling Verify twice in a row with the same folders and no filesystem
// changes produces an identical report and leaves statuses unchanged.
func (v *Verifier) Verify(docs []*kbtypes.Document, sourceFolders []string) VerificationReport {
	statuses := make([]SourceStatus, 0, len(sourceFolders))
	available := make(map[string]bool, len(sourceFolders))

	sorted := append([]string(nil), sourceFolders...)
	sort.Strings(sorted)

	for _, folder := range sorted {
		ok := folderReachable(folder)
		available[folder] = ok
		statuses = append(statuses, SourceStatus{Folder: folder, Available: ok})
	}

	report := VerificationReport{
		TotalSources:   len(sourceFolders),
		SourceStatuses: statuses,
	}
	for _, s := range statuses {
		if s.Available {
			report.AvailableSources++
		} else {
			report.MissingSources++
		}
	}

	for _, doc := range docs {
		folder := longestPrefixFolder(doc, sourceFolders)
		reachable := folder == "" || available[folder]

		switch {
		case !reachable:
			doc.Status = kbtypes.StatusFrozen
			report.FrozenDocuments++
		case doc.Status == kbtypes.StatusFrozen:
			doc.Status = kbtypes.StatusActive
		}
	}

	return report
}

// folderReachable reports whether folder exists and is a directory.
func folderReachable(folder string) bool {
	info, err := os.Stat(folder)
	return err == nil && info.IsDir()
}

// longestPrefixFolder returns the source folder with the longest path
// prefix of doc that still contains it, preferring an exact SourceFolder
// match first.
func longestPrefixFolder(doc *kbtypes.Document, folders []string) string {
	for _, f := range folders {
		if f == doc.SourceFolder {
			return f
		}
	}

	best := ""
	for _, f := range folders {
		clean := filepath.Clean(f)
		if !strings.HasPrefix(filepath.Clean(doc.FilePath), clean) {
			continue
		}
		if len(clean) > len(best) {
			best = clean
		}
	}
	return best
}
