package enums

import "fmt"

// PartyType identifies which side of the marketplace a settlement pays.
type PartyType string

const (
	PartyTypeSeller   PartyType = "seller"
	PartyTypeSupplier PartyType = "supplier"
	PartyTypePartner  PartyType = "partner"
)

var validPartyTypes = []PartyType{
	PartyTypeSeller,
	PartyTypeSupplier,
	PartyTypePartner,
}

// IsValid reports whether the value is a known PartyType.
func (p PartyType) IsValid() bool {
	for _, candidate := range validPartyTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePartyType converts raw input into a PartyType.
func ParsePartyType(value string) (PartyType, error) {
	for _, candidate := range validPartyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid party type %q", value)
}

// BillingUnit is the measurement basis a settlement aggregates by.
type BillingUnit string

const (
	BillingUnitApprovedRequest BillingUnit = "approved_request"
	BillingUnitConsultation    BillingUnit = "consultation"
	BillingUnitFulfilledOrder  BillingUnit = "fulfilled_order"
)

var validBillingUnits = []BillingUnit{
	BillingUnitApprovedRequest,
	BillingUnitConsultation,
	BillingUnitFulfilledOrder,
}

// IsValid reports whether the value is a known BillingUnit.
func (b BillingUnit) IsValid() bool {
	for _, candidate := range validBillingUnits {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBillingUnit converts raw input into a BillingUnit.
func ParseBillingUnit(value string) (BillingUnit, error) {
	for _, candidate := range validBillingUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing unit %q", value)
}
