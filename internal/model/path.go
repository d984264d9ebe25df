package model

// Version is the released version of elmbackup.
const Version = "0.3.0"

// Row is a single manifest line.
type Row struct {
	Number                int    // 0-based data row number (header excluded)
	Path                  string // Path to back up
	TarChildrenSeparately bool   // Archive each direct child of Path on its own
	JobRequirements       string // Extra scheduler flags, already normalized
}

// Status is the lifecycle state of a single transfer item.
type Status string

const (
	StatusPending  Status = "pending"
	StatusArchived Status = "archived"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

// SkipReason explains why an item was not handed to the archive tool.
type SkipReason string

const (
	SkipNone       SkipReason = ""
	SkipMissing    SkipReason = "missing"
	SkipFile       SkipReason = "file"
	SkipEmpty      SkipReason = "empty"
	SkipUnreadable SkipReason = "unreadable"
)

// Item is one path scheduled for transfer.
type Item struct {
	Position
	Source      string     // Absolute local path
	Destination string     // Bucket path the archive is written to
	Label       string     // Transfer label, e.g. backup-Q1-2026-3.4
	Command     string     // Rendered command line
	Status      Status     // pending until the driver (or the planner) decides
	Reason      SkipReason // Set when Status is skipped
	Detail      string     // Error text for failed items
}

// RowPlan groups the items expanded from one manifest row.
type RowPlan struct {
	Row   Row
	Items []Item
	Err   string // Set when the row could not be expanded
}

// Plan is the full set of work for one run.
type Plan struct {
	Folder string
	Bucket string
	Start  Position
	Rows   []RowPlan
}

// Summary reports what a driver run did.
type Summary struct {
	Rows        int // Rows finished
	TotalRows   int
	Archived    int
	Failed      int
	Planned     int // dry runs only: items that would have been transferred
	Skipped     map[SkipReason]int
	Last        Position // Position of the last item handled
	Next        Position // Position to pass when resuming
	Interrupted bool
}

// SkippedTotal sums skipped items over all reasons.
func (s Summary) SkippedTotal() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}
