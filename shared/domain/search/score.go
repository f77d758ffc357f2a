package search

import "strings"

// TitleScore deterministically encodes the first 8 characters of a
// lowercased title into a float64 suitable as a Redis sorted-set score, so
// ZRANGE over `available:books:by:title` orders titles by their first 8
// characters. Each of the 8 character slots contributes a base-37 digit
// (0-25 for a-z, 26-35 for 0-9, 36 for any other rune or a short title's
// padding), most-significant slot first. Because padding takes the highest
// digit, a title sorts after longer titles it is a prefix of ("Dune" after
// "Dune Messiah"), and letters sort before digits and other runes.
func TitleScore(title string) float64 {
	lower := strings.ToLower(title)
	runes := []rune(lower)

	const base = 37.0
	score := 0.0
	for i := 0; i < 8; i++ {
		var digit float64 = 36 // padding / unknown
		if i < len(runes) {
			digit = charDigit(runes[i])
		}
		score = score*base + digit
	}
	return score
}

func charDigit(r rune) float64 {
	switch {
	case r >= 'a' && r <= 'z':
		return float64(r - 'a')
	case r >= '0' && r <= '9':
		return float64(26 + (r - '0'))
	default:
		return 36
	}
}
