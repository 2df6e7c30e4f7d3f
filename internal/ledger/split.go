package ledger

import "fmt"

// Party identifies a side of a two-person expense from the viewer's
// perspective.
type Party int

const (
	PartyYou Party = iota
	PartyThem
)

func (p Party) String() string {
	if p == PartyYou {
		return "you"
	}
	return "they"
}

// Other returns the opposite side.
func (p Party) Other() Party {
	if p == PartyYou {
		return PartyThem
	}
	return PartyYou
}

// SplitMode says how a total is divided between payer and non-payer.
type SplitMode int

const (
	// SplitEqual: each side owes half.
	SplitEqual SplitMode = iota
	// SplitPayerOnly: the non-payer owes the whole total.
	SplitPayerOnly
)

func (m SplitMode) String() string {
	if m == SplitEqual {
		return "equal"
	}
	return "payer_only"
}

// ModeOf recovers the split mode from the payer's share. A payer who owes
// nothing was not part of the split.
func ModeOf(payer Share) SplitMode {
	if payer.AmountOwed == 0 && payer.AmountPaid != 0 {
		return SplitPayerOnly
	}
	return SplitEqual
}

// SplitModeFor maps the splitEqually flag used on the wire to a SplitMode.
func SplitModeFor(splitEqually bool) SplitMode {
	if splitEqually {
		return SplitEqual
	}
	return SplitPayerOnly
}

// PaymentType combines who paid with how the cost is split. Its String form is
// the legacy payment type string.
type PaymentType struct {
	Payer Party
	Split SplitMode
}

// PaymentTypes lists every combination, in a stable order.
func PaymentTypes() []PaymentType {
	var out []PaymentType
	for _, payer := range []Party{PartyYou, PartyThem} {
		for _, split := range []SplitMode{SplitEqual, SplitPayerOnly} {
			out = append(out, PaymentType{Payer: payer, Split: split})
		}
	}
	return out
}

// String returns the legacy string, e.g. "you_paid_total_split_evenly" or
// "they_paid_total_you_owe".
func (pt PaymentType) String() string {
	prefix := fmt.Sprintf("%s_paid_total", pt.Payer)
	if pt.Split == SplitEqual {
		return prefix + "_split_evenly"
	}
	owing := "you"
	if pt.Payer == PartyYou {
		owing = "they"
	}
	return fmt.Sprintf("%s_%s_owe", prefix, owing)
}

// ParsePaymentType parses a legacy payment type string.
func ParsePaymentType(s string) (PaymentType, error) {
	for _, pt := range PaymentTypes() {
		if pt.String() == s {
			return pt, nil
		}
	}
	return PaymentType{}, fmt.Errorf("unknown payment type %q", s)
}

// Share is one participant's amounts for an expense.
type Share struct {
	AmountPaid float64
	AmountOwed float64
}

// SplitAmounts computes the payer's and non-payer's shares of total.
// The payer always paid the full total and the non-payer paid nothing.
func SplitAmounts(total float64, mode SplitMode) (payer, other Share) {
	payer.AmountPaid = total
	if mode == SplitEqual {
		half := total / 2
		payer.AmountOwed = half
		other.AmountOwed = half
		return payer, other
	}
	other.AmountOwed = total
	return payer, other
}
