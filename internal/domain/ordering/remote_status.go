package ordering

import "github.com/fulfillment/backend/internal/domain/integration"

// FromRemoteStatus maps a remote shipping-system status to the local order
// status. Returns false for statuses the local lifecycle does not track.
func FromRemoteStatus(s integration.RemoteOrderStatus) (OrderStatus, bool) {
	switch s {
	case integration.RemoteStatusAwaitingPayment:
		return OrderStatusAwaitingPayment, true
	case integration.RemoteStatusAwaitingShipment:
		return OrderStatusAwaitingShipment, true
	case integration.RemoteStatusShipped:
		return OrderStatusShipped, true
	case integration.RemoteStatusOnHold:
		return OrderStatusOnHold, true
	case integration.RemoteStatusCancelled:
		return OrderStatusCancelled, true
	default:
		return "", false
	}
}
