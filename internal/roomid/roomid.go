package roomid

import "strings"

// For maps an unordered pair of user ids to the canonical room id: the
// two ids sorted lexicographically ascending, joined by "_". Symmetric
// and total, so two clients opening the same conversation from either
// side converge on one room without coordination.
func For(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// SortPair returns the two ids in canonical (ascending) order.
func SortPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Split recovers the member ids from a room id. Returns false for ids
// that are not in the two-part format.
func Split(id string) (string, string, bool) {
	parts := strings.SplitN(id, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
