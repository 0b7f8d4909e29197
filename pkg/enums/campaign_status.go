package enums

import "fmt"

// CampaignStatus describes whether a campaign page still accepts orders.
type CampaignStatus string

const (
	CampaignStatusActive CampaignStatus = "active"
	CampaignStatusClosed CampaignStatus = "closed"
)

var validCampaignStatuses = []CampaignStatus{
	CampaignStatusActive,
	CampaignStatusClosed,
}

func (s CampaignStatus) String() string {
	return string(s)
}

func (s CampaignStatus) IsValid() bool {
	for _, candidate := range validCampaignStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseCampaignStatus(value string) (CampaignStatus, error) {
	for _, candidate := range validCampaignStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid campaign status %q", value)
}
