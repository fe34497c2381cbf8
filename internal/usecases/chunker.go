package usecases

import "strings"

// SplitReply splits a long reply into sentence-like chunks at a period
// followed by whitespace. A period immediately preceded by a digit never
// splits, so decimals ("$9.5 now") and numbered lists stay intact. The
// separator is consumed; the final chunk keeps its trailing period.
// Empty or whitespace-only input yields no chunks.
func SplitReply(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	emit := func(chunk string) {
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	start := 0
	i := 0
	for i < len(text) {
		if text[i] == '.' && i+1 < len(text) && isSpace(text[i+1]) &&
			!(i > 0 && isDigit(text[i-1])) {
			emit(text[start:i])
			i++
			for i < len(text) && isSpace(text[i]) {
				i++
			}
			start = i
			continue
		}
		i++
	}
	emit(text[start:])

	return chunks
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
