package notification

// Preference is a per-user boolean matrix over notification types, gated by
// a master emailEnabled switch.
type Preference struct {
	UserID       string
	EmailEnabled bool
	ByType       map[Type]bool
}

// NewDefaultPreference returns a preference with every known type enabled,
// matching the marketplace's opt-out (not opt-in) default.
func NewDefaultPreference(userID string) Preference {
	return Preference{
		UserID:       userID,
		EmailEnabled: true,
		ByType: map[Type]bool{
			TypeOrderConfirmation: true,
			TypeOrderShipped:      true,
			TypeOrderDelivered:    true,
			TypeOrderCancelled:    true,
			TypeOrderRefunded:     true,
			TypeSellerPayout:      true,
		},
	}
}

// Effective ANDs the master emailEnabled gate with the type-specific flag.
// An unknown type defaults to disabled: a type the preference matrix has no
// explicit entry for is never sent.
func (p Preference) Effective(t Type) bool {
	if !p.EmailEnabled {
		return false
	}
	enabled, ok := p.ByType[t]
	return ok && enabled
}
