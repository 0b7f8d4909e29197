package types

import "strings"

// ShippingAddress is where a finished order ships.
type ShippingAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country,omitempty"`
}

// CustomerInfo holds the contact and shipping fields collected at checkout.
type CustomerInfo struct {
	Name             string          `json:"customer_name"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	OrganizationName string          `json:"organization_name,omitempty"`
	NeedByDate       string          `json:"need_by_date,omitempty"`
	ShippingAddress  ShippingAddress `json:"shipping_address"`
}

// MissingRequired returns the JSON names of required fields that are blank.
func (c CustomerInfo) MissingRequired() []string {
	required := []struct {
		name  string
		value string
	}{
		{"customer_name", c.Name},
		{"email", c.Email},
		{"phone", c.Phone},
		{"shipping_address.line1", c.ShippingAddress.Line1},
		{"shipping_address.city", c.ShippingAddress.City},
		{"shipping_address.state", c.ShippingAddress.State},
		{"shipping_address.postal_code", c.ShippingAddress.PostalCode},
	}
	var missing []string
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}
