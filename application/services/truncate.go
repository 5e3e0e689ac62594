package services

// Truncate keeps the first length runes of s and appends "..." when anything
// was cut.
func Truncate(s string, length int) string {
	r := []rune(s)
	if length < 0 || len(r) <= length {
		return s
	}
	return string(r[:length]) + "..."
}
