package enums

import "fmt"

// PaymentStyle records who pays for a campaign's garments.
type PaymentStyle string

const (
	PaymentStyleOrganizerPays PaymentStyle = "organizer_pays"
	PaymentStyleEveryonePays  PaymentStyle = "everyone_pays"
)

var validPaymentStyles = []PaymentStyle{
	PaymentStyleOrganizerPays,
	PaymentStyleEveryonePays,
}

func (p PaymentStyle) String() string {
	return string(p)
}

func (p PaymentStyle) IsValid() bool {
	for _, candidate := range validPaymentStyles {
		if candidate == p {
			return true
		}
	}
	return false
}

func ParsePaymentStyle(value string) (PaymentStyle, error) {
	for _, candidate := range validPaymentStyles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment style %q", value)
}
