// Package names generates the client-side labels attached to submissions.
package names

import (
	"fmt"
	"time"
)

const tagNamespace = "mozart"

// Timestamps match the cluster convention of microsecond ISO-8601
// without a zone designator.
const tagTimeLayout = "2006-01-02T15:04:05.000000"

// NewTag Builds a trackable tag from an action label and the current
// time. Tags are human-readable markers, not globally unique ids;
// sub-second submission bursts can collide.
func NewTag(action string) string {
	return NewTagAt(action, time.Now())
}

// NewTagAt Builds a tag for a fixed timestamp
func NewTagAt(action string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s", tagNamespace, action, at.Format(tagTimeLayout))
}
