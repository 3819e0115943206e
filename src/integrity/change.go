package integrity

import (
	"fmt"
	"time"
)

// Kind classifies the outcome of one filesystem event.
type Kind string

const (
	Created     Kind = "CREATED"
	Modified    Kind = "MODIFIED"
	Touched     Kind = "TOUCHED"
	Deleted     Kind = "DELETED"
	RenamedFrom Kind = "RENAMED_FROM"
	RenamedTo   Kind = "RENAMED_TO"
	Skip        Kind = "SKIP"
)

// UnknownDigest marks deletions of paths that were never tracked.
const UnknownDigest = "UNKNOWN"

// Entry renders one trail line: RFC 3339 UTC timestamp, two spaces, message.
func Entry(t time.Time, msg string) string {
	return fmt.Sprintf("%s  %s", Timestamp(t), msg)
}
