package repository

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns user search text into an ILIKE substring pattern, matching % and _ literally.
// Pair it with ESCAPE '\'.
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}
