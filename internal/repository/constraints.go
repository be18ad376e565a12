package repository

import (
	"strings"

	"warehouse_service/internal/domain"
)

func exceedsCapacity(amount int) error {
	return domain.NewValidationError("amount", "cannot receive %d units, the stock limit is %d", amount, domain.MaxQuantity)
}

// receiveCeiling is the highest quantity a product may have before receiving
// amount units; ok is false when no quantity can take amount.
func receiveCeiling(amount int) (ceiling int, ok bool) {
	if amount < 0 || amount > domain.MaxQuantity {
		return 0, false
	}
	return domain.MaxQuantity - amount, true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s literally; use it with
// ESCAPE '\'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
