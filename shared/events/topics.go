package events

// Routing keys published to and consumed from the event fabric's topic
// exchange. Each constant doubles as the AMQP routing key and the
// Envelope.Type discriminator.
const (
	TopicUserCreated     = "user.created"
	TopicUserUpdated     = "user.updated"
	TopicUserRoleChanged = "user.role_changed"
	TopicSellerCreated   = "seller.created"

	TopicBookCreated      = "book.created"
	TopicBookUpdated      = "book.updated"
	TopicBookDeleted      = "book.deleted"
	TopicBookStockUpdated = "book.stock_updated"

	TopicOrderCreated           = "order.created"
	TopicOrderPaid              = "order.paid"
	TopicOrderShipped           = "order.shipped"
	TopicOrderDelivered         = "order.delivered"
	TopicOrderCancelled         = "order.cancelled"
	TopicOrderRefunded          = "order.refunded"
	TopicOrderItemStatusChanged = "order.item_status_changed"

	TopicInventoryReservationFailed = "inventory.reservation_failed"
	TopicSellerStatsUpdateFailed    = "seller.stats_update_failed"
	TopicNotificationFailed         = "notification.failed"

	TopicCompensationRequired       = "compensation.required"
	TopicCompensationCompleted      = "compensation.completed"
	TopicOrderCancellationRequested = "order.cancellation_requested"
)
