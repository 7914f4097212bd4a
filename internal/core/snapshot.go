package core

import "time"

// SnapshotRecord is one entry of the describe-snapshots listing, read as-is.
type SnapshotRecord struct {
	SnapshotID  string    `json:"SnapshotId"`
	StartTime   time.Time `json:"StartTime"`
	Description string    `json:"Description"`
}

// DescriptionTimeLayout formats the timestamp suffix of a snapshot description
// (YYYY-MM-DD/HH:mm:ss).
const DescriptionTimeLayout = "2006-01-02/15:04:05"

// Description builds the description tag for a new snapshot under prefix.
func Description(prefix string, t time.Time) string {
	return prefix + "/" + t.Format(DescriptionTimeLayout)
}

// DescriptionFilter is the describe-snapshots filter value matching every
// snapshot under prefix.
func DescriptionFilter(prefix string) string {
	return prefix + "/*"
}
