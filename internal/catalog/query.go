package catalog

import "strings"

// ByCharacter returns the clips whose character matches name, ignoring case.
func ByCharacter(clips []ClipRecord, name string) []ClipRecord {
	out := []ClipRecord{}
	for _, c := range clips {
		if strings.EqualFold(c.Character, name) {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the clip with the given id.
func Find(clips []ClipRecord, id string) (ClipRecord, bool) {
	for _, c := range clips {
		if c.ID == id {
			return c, true
		}
	}
	return ClipRecord{}, false
}

// Search returns clips whose id or description contains query, ignoring case.
func Search(clips []ClipRecord, query string) []ClipRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []ClipRecord{}
	if q == "" {
		return out
	}
	for _, c := range clips {
		if strings.Contains(strings.ToLower(c.ID), q) || strings.Contains(strings.ToLower(c.Description), q) {
			out = append(out, c)
		}
	}
	return out
}

// Descriptions returns the description of every clip, in catalog order.
func Descriptions(clips []ClipRecord) []string {
	out := make([]string, len(clips))
	for i, c := range clips {
		out[i] = c.Description
	}
	return out
}
