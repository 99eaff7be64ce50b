package category

import (
	"strings"

	"fintrack/internal/core"
)

// IsDuplicate reports whether candidate collides with an existing category of
// the same type. Names compare trimmed and case-insensitively, types
// upper-cased. Entries without a name or type are ignored.
func IsDuplicate(candidate core.CategoryInput, existing []core.Category) bool {
	return findDuplicate(candidate, existing, "")
}

// findDuplicate is IsDuplicate that skips the category being edited.
func findDuplicate(candidate core.CategoryInput, existing []core.Category, exceptID string) bool {
	name, kind := normalize(candidate.Name, string(candidate.Type))
	if name == "" || kind == "" {
		return false
	}
	for _, c := range existing {
		if exceptID != "" && c.ID == exceptID {
			continue
		}
		n, k := normalize(c.Name, string(c.Type))
		if n == "" || k == "" {
			continue
		}
		if n == name && k == kind {
			return true
		}
	}
	return false
}

func normalize(name, kind string) (string, string) {
	return strings.ToLower(strings.TrimSpace(name)), strings.ToUpper(strings.TrimSpace(kind))
}

// duplicateError builds the user facing rejection, e.g.
// "A expense category with this name already exists".
func duplicateError(t core.TransactionType) error {
	return core.Invalid("name", core.ErrDuplicateCategory,
		"A "+strings.ToLower(string(t))+" category with this name already exists")
}
