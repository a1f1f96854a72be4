package ost

import "strconv"

// stableID hashes s with a DJB2-style 32-bit rolling hash and renders it in
// base36. Identical input always yields the identical id within a process.
func stableID(s string) string {
	var h uint32 = 5381
	for _, r := range s {
		h = h*33 + uint32(r)
	}
	return strconv.FormatUint(uint64(h), 36)
}

// cardID derives a card's id from its structural path, type and title.
func cardID(path string, typ CardType, title string) string {
	return stableID(path + "|" + string(typ) + "|" + title)
}
