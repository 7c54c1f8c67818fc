package shipstation

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fulfillment/backend/internal/domain/integration"
	"github.com/fulfillment/backend/internal/domain/shared/valueobject"
)

// ShipStation timestamps carry fractional seconds without a zone and are
// documented as US Pacific time. The fraction width varies by endpoint.
var timeLayouts = []string{
	"2006-01-02T15:04:05.0000000",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// parseTime parses a ShipStation timestamp, returning the zero time for
// empty or unparseable values
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// formatTime formats a timestamp for ShipStation query parameters
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

// apiAddress is an address as encoded by the ShipStation API
type apiAddress struct {
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	Street1     string `json:"street1"`
	Street2     string `json:"street2,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"`
	Residential bool   `json:"residential"`
}

func addressFromDomain(a valueobject.Address) apiAddress {
	return apiAddress{
		Name:        a.Name,
		Phone:       a.Phone,
		Street1:     a.Street1,
		Street2:     a.Street2,
		City:        a.City,
		State:       a.State,
		PostalCode:  a.PostalCode,
		Country:     a.CountryCode,
		Residential: a.Residential,
	}
}

func (a apiAddress) toDomain() valueobject.Address {
	return valueobject.Address{
		Name:        a.Name,
		Phone:       a.Phone,
		Street1:     a.Street1,
		Street2:     a.Street2,
		City:        a.City,
		State:       a.State,
		PostalCode:  a.PostalCode,
		CountryCode: a.Country,
		Residential: a.Residential,
	}
}

// apiOrderItem is a line item as encoded by the ShipStation API
type apiOrderItem struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// apiOrder is an order as returned by the ShipStation API
type apiOrder struct {
	OrderID     int64          `json:"orderId"`
	OrderNumber string         `json:"orderNumber"`
	OrderStatus string         `json:"orderStatus"`
	CarrierCode string         `json:"carrierCode"`
	ServiceCode string         `json:"serviceCode"`
	ShipTo      apiAddress     `json:"shipTo"`
	Items       []apiOrderItem `json:"items"`
	CreateDate  string         `json:"createDate"`
	ModifyDate  string         `json:"modifyDate"`
}

// toRemoteOrder converts an API order to the domain representation
func (o *apiOrder) toRemoteOrder() integration.RemoteOrder {
	items := make([]integration.RemoteOrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, integration.RemoteOrderItem{
			ProductCode: item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	return integration.RemoteOrder{
		RemoteID:    strconv.FormatInt(o.OrderID, 10),
		OrderNumber: o.OrderNumber,
		Status:      integration.RemoteOrderStatus(o.OrderStatus),
		CarrierCode: o.CarrierCode,
		ServiceCode: o.ServiceCode,
		ShipTo:      o.ShipTo.toDomain(),
		Items:       items,
		CreatedAt:   parseTime(o.CreateDate),
		ModifiedAt:  parseTime(o.ModifyDate),
	}
}

// listOrdersResponse is the envelope of GET /orders
type listOrdersResponse struct {
	Orders []apiOrder `json:"orders"`
	Total  int64      `json:"total"`
	Page   int        `json:"page"`
	Pages  int        `json:"pages"`
}

// createOrderRequest is the body of POST /orders/createorder
type createOrderRequest struct {
	OrderNumber string         `json:"orderNumber"`
	OrderDate   string         `json:"orderDate"`
	OrderStatus string         `json:"orderStatus"`
	ShipTo      apiAddress     `json:"shipTo"`
	BillTo      apiAddress     `json:"billTo"`
	CarrierCode string         `json:"carrierCode,omitempty"`
	ServiceCode string         `json:"serviceCode,omitempty"`
	Items       []apiOrderItem `json:"items"`
}

// newCreateOrderRequest builds the upload body from a domain payload. New
// orders enter the remote system awaiting shipment; the bill-to address
// mirrors ship-to because billing is not tracked locally.
func newCreateOrderRequest(p *integration.OrderPayload) createOrderRequest {
	items := make([]apiOrderItem, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, apiOrderItem{
			SKU:       item.ProductCode,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	addr := addressFromDomain(p.ShipTo)
	return createOrderRequest{
		OrderNumber: p.OrderNumber,
		OrderDate:   p.OrderDate.UTC().Format("2006-01-02T15:04:05"),
		OrderStatus: integration.RemoteStatusAwaitingShipment.String(),
		ShipTo:      addr,
		BillTo:      addr,
		CarrierCode: p.CarrierCode,
		ServiceCode: p.ServiceCode,
		Items:       items,
	}
}

// apiError is the error envelope returned by the ShipStation API
type apiError struct {
	Message      string `json:"Message"`
	ExceptionMsg string `json:"ExceptionMessage"`
}
