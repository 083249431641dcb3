package analyzer

// splitRunes cuts text into chunks of at most size runes, keeping at most max
// chunks. The second result reports whether text was dropped.
func splitRunes(text string, size, max int) ([]string, bool) {
	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); start += size {
		if len(chunks) == max {
			return chunks, true
		}
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, false
}
