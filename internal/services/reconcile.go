package services

import "clinic/internal/core"

// Balance reconciliation. Each function returns a new client slice; clients
// not named by the payment are copied through unchanged, and an unknown
// client id leaves the slice as it was. Balances never drop below zero:
// overpayment is not carried as credit.

// ApplyPaymentAdded debits p.Amount from the owning client.
func ApplyPaymentAdded(clients []core.Client, p core.Payment) []core.Client {
	return adjustBalance(clients, p.ClientID, func(b core.Money) core.Money {
		return b.Sub(p.Amount).FloorZero()
	})
}

// ApplyPaymentDeleted restores p.Amount to the owning client.
func ApplyPaymentDeleted(clients []core.Client, p core.Payment) []core.Client {
	return adjustBalance(clients, p.ClientID, func(b core.Money) core.Money {
		return b.Add(p.Amount)
	})
}

// ApplyPaymentEdited moves the balance effect of old to updated. When the
// owning client is unchanged the net difference is applied once, so the
// floor is evaluated on the combined result.
func ApplyPaymentEdited(clients []core.Client, old, updated core.Payment) []core.Client {
	if old.ClientID == updated.ClientID {
		return adjustBalance(clients, old.ClientID, func(b core.Money) core.Money {
			return b.Add(old.Amount).Sub(updated.Amount).FloorZero()
		})
	}
	return ApplyPaymentAdded(ApplyPaymentDeleted(clients, old), updated)
}

func adjustBalance(clients []core.Client, id string, fn func(core.Money) core.Money) []core.Client {
	out := make([]core.Client, len(clients))
	copy(out, clients)
	for i := range out {
		if out[i].ID == id {
			out[i].Balance = fn(out[i].Balance)
			break
		}
	}
	return out
}
