package sentiment

// DefaultMaxLength is the chunk size, in characters, accepted by the default
// hosted classifier.
const DefaultMaxLength = 512

// Chunk splits corpus into consecutive windows of maxLength characters (Unicode
// code points). The last window may be shorter. Joining the chunks reproduces
// corpus byte for byte. An empty corpus yields no chunks; maxLength <= 0 falls
// back to DefaultMaxLength.
func Chunk(corpus string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if corpus == "" {
		return nil
	}

	var chunks []string
	start, count := 0, 0
	for i := range corpus {
		if count == maxLength {
			chunks = append(chunks, corpus[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(chunks, corpus[start:])
}
