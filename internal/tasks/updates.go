package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchCollection Phase = iota
	FetchPage
	ExportCollection
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchCollection:
		return "fetch_collection"
	case FetchPage:
		return "fetch_page"
	case ExportCollection:
		return "export_collection"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchingCollectionUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching %s...", step, total, name),
	}
}

func fetchPageUpdate(name string, page, lastPage, records int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPage,
		Step:    page + 1,
		Total:   lastPage + 1,
		Message: fmt.Sprintf("%s: page %d/%d (%d records)", name, page+1, lastPage+1, records),
	}
}

func exportCompletedUpdate(step, total int, res CollectionResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d records)", step, total, res.Collection, res.Records),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res CollectionResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCollection,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Collection, res.Err),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
	}
}
