package category

import (
	"strconv"
)

// NextChildID returns parentID plus the smallest positive integer segment not
// already taken in used.
func NextChildID(parentID string, used map[string]struct{}) string {
	for n := 1; ; n++ {
		id := parentID + "." + strconv.Itoa(n)
		if _, taken := used[id]; !taken {
			return id
		}
	}
}

// NextRootID returns the first unused root label in ShortLex sequence:
// A..Z, then AA, AB, ... ZZ, AAA, ...
func NextRootID(used map[string]struct{}) string {
	for n := 0; ; n++ {
		id := rootLabel(n)
		if _, taken := used[id]; !taken {
			return id
		}
	}
}

// NextSiblingID allocates a new id under the same parent as id.
func NextSiblingID(id string, used map[string]struct{}) string {
	if parent := ParentOf(id); parent != "" {
		return NextChildID(parent, used)
	}
	return NextRootID(used)
}

// rootLabel maps 0,1,...,25,26,... to A,...,Z,AA,... (bijective base 26).
func rootLabel(n int) string {
	var buf []byte
	for n >= 0 {
		buf = append([]byte{byte('A' + n%26)}, buf...)
		n = n/26 - 1
	}
	return string(buf)
}
