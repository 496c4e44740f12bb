package utils

// UniqueStrings removes duplicate values while preserving first-seen order.
func UniqueStrings(slice []string) []string {
	keys := make(map[string]bool)
	list := []string{}
	for _, entry := range slice {
		if _, seen := keys[entry]; !seen {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}
