package attachment

import (
	"fmt"
	"math"
	"strings"

	"github.com/m2tx/chat_orchestrator/internal/model"
)

var menu = []string{
	"Summarize text",
	"Run OCR (optical character recognition)",
	"Analyze images",
	"Extract tables",
}

// KiB returns the size in kibibytes, rounded to the nearest integer.
func KiB(size int64) int64 {
	return int64(math.Round(float64(size) / 1024))
}

// AcknowledgmentMessage is the one-time receipt for an attachment.
func AcknowledgmentMessage(a model.Attachment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d KB, %s).\n\n", Marker(a.Name()), KiB(a.FileSize), a.MIMEType())
	b.WriteString("What would you like me to do with it?\n")
	for i, item := range menu {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	b.WriteString("\nReply with a number or describe what you need, for example \"analyze this\".")
	return b.String()
}
