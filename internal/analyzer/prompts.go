package analyzer

import (
	"fmt"
	"strings"
)

const summaryStructure = `Structure the answer in three parts:
1. Executive summary: one short paragraph.
2. Sections: the main sections of the document, one line each.
3. Key takeaways: the most important points as bullet points.`

func documentPrompt(name, text string) string {
	return fmt.Sprintf("Summarize the document %q.\n\n%s\n\n---\n%s", name, summaryStructure, text)
}

func chunkPrompt(name string, part, total int, text string) string {
	return fmt.Sprintf("This is part %d of %d of the document %q. Summarize the key points of this part in a few sentences. Keep names, figures and dates.\n\n---\n%s", part, total, name, text)
}

func synthesisPrompt(name string, summaries []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The document %q was summarized in %d consecutive parts. Combine the part summaries below into a single summary.\n\n%s\n", name, len(summaries), summaryStructure)
	for i, s := range summaries {
		fmt.Fprintf(&b, "\n--- Part %d ---\n%s\n", i+1, s)
	}
	return b.String()
}

const visionPrompt = `Extract all legible text from this image (OCR), preserving the reading order and line breaks. If there is no text, say so.
Then add a heading "Summary" followed by a two-line summary of what the image shows.`

func textPrompt(name, text string) string {
	return fmt.Sprintf("Summarize the file %q in 5 lines, then list its key points as bullet points.\n\n---\n%s", name, text)
}
