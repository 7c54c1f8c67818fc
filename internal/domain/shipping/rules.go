package shipping

import (
	"github.com/fulfillment/backend/internal/domain/ordering"
)

// ShipmentClass groups orders by their shipping requirements
type ShipmentClass string

const (
	// ShipmentClassStandard has no carrier or service constraint
	ShipmentClassStandard ShipmentClass = "STANDARD"
	// ShipmentClassExpedited requires an expedited service level
	ShipmentClassExpedited ShipmentClass = "EXPEDITED"
	// ShipmentClassInternational requires the dedicated international
	// carrier account
	ShipmentClassInternational ShipmentClass = "INTERNATIONAL"
)

// String returns the string representation of ShipmentClass
func (c ShipmentClass) String() string {
	return string(c)
}

// Rule is the expected carrier/service for one shipment class. Empty
// expected values mean the class does not constrain that dimension.
type Rule struct {
	ExpectedCarrier string
	ExpectedService string
}

// RuleSet maps shipment classes to their expected carrier/service
type RuleSet struct {
	// HomeCountry is the ISO country code below which shipments count as
	// domestic
	HomeCountry string
	Rules       map[ShipmentClass]Rule
}

// DefaultRuleSet returns the built-in classification rules
func DefaultRuleSet() RuleSet {
	return RuleSet{
		HomeCountry: "US",
		Rules: map[ShipmentClass]Rule{
			ShipmentClassExpedited:     {ExpectedCarrier: "ups", ExpectedService: "ups_next_day_air"},
			ShipmentClassInternational: {ExpectedCarrier: "ups_international"},
		},
	}
}

// Classify determines the shipment class for an order from its destination
// and customer attributes
func (rs RuleSet) Classify(order *ordering.Order) ShipmentClass {
	if !order.ShipTo.IsDomestic(rs.HomeCountry) {
		return ShipmentClassInternational
	}
	if order.Priority {
		return ShipmentClassExpedited
	}
	return ShipmentClassStandard
}

// Finding is a detected divergence between expected and actual shipping
// values for an order
type Finding struct {
	Kind     ViolationKind
	Expected string
	Actual   string
}

// Check compares an order's actual carrier/service against the expectation
// for its shipment class. It is a pure function: it never mutates the order
// and never blocks shipment. A class without a rule yields no findings.
func (rs RuleSet) Check(order *ordering.Order) []Finding {
	rule, ok := rs.Rules[rs.Classify(order)]
	if !ok {
		return nil
	}

	var findings []Finding
	if rule.ExpectedCarrier != "" && order.CarrierCode != rule.ExpectedCarrier {
		findings = append(findings, Finding{
			Kind:     ViolationKindCarrierMismatch,
			Expected: rule.ExpectedCarrier,
			Actual:   order.CarrierCode,
		})
	}
	if rule.ExpectedService != "" && order.ServiceCode != rule.ExpectedService {
		findings = append(findings, Finding{
			Kind:     ViolationKindServiceMismatch,
			Expected: rule.ExpectedService,
			Actual:   order.ServiceCode,
		})
	}
	return findings
}
