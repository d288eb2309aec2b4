package queue

import (
	"fmt"
	"strings"
)

// RenderStatus formats a statistics snapshot for the /queue command. It is a
// pure function: same snapshot in, same text out, no side effects.
func RenderStatus(snap Snapshot) string {
	processing := "Idle"
	if snap.ProcessingID != "" {
		id := snap.ProcessingID
		if len(id) > 8 {
			id = id[:8]
		}
		processing = fmt.Sprintf("Currently processing: %s", id)
	}

	var b strings.Builder
	b.WriteString("🔄 Queue Status\n")
	fmt.Fprintf(&b, "📊 Current queue size: %d\n", snap.QueueSize)
	fmt.Fprintf(&b, "⚙️ Status: %s\n", processing)
	fmt.Fprintf(&b, "✅ Total processed: %d\n", snap.TotalProcessed)
	fmt.Fprintf(&b, "❌ Total failed: %d\n", snap.TotalFailed)
	fmt.Fprintf(&b, "📥 Total queued: %d", snap.TotalQueued)
	return b.String()
}
