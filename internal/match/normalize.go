package match

import "github.com/MrWong99/presenter/pkg/catalog"

// Normalize folds s into the form both signals compare. It is
// [catalog.Fold], so a name that passes catalog validation never normalises
// to an empty candidate.
func Normalize(s string) string {
	return catalog.Fold(s)
}
