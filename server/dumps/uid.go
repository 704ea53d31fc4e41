package dumps

import (
	"fmt"
	"time"
)

// Layout of the dump identifier without the milliseconds part.
const uidLayout = "20060102-150405"

// Generates the dump identifier from the creation time, e.g.
// 20210607-141512123. The time is converted to UTC and truncated to
// milliseconds, so the lexical order follows the creation order.
func generateUID(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("%s%03d", now.Format(uidLayout), now.Nanosecond()/int(time.Millisecond))
}
