package engine

import "github.com/granadev/grana-go/internal/domain"

// EffectiveAmount returns the amount that counts against the user's own cash
// flow: the user's share for a shared expense, the full face value otherwise.
// The engine performs no clamping; a share larger than the face value is
// substituted as-is.
func EffectiveAmount(t domain.Transaction) float64 {
	if t.IsShared && t.MyShareValue != nil {
		return *t.MyShareValue
	}
	return t.Amount
}
