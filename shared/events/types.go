package events

// OrderItemPayload is the wire shape of one OrderItem inside order events.
type OrderItemPayload struct {
	OrderItemID string `json:"order_item_id"`
	ISBN        string `json:"isbn"`
	SellerID    string `json:"seller_id"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Currency    string `json:"currency"`
}

// UserCreatedData mirrors the UserService-owned user.created contract this
// marketplace consumes to keep its denormalized customer projections fresh.
type UserCreatedData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// UserUpdatedData is emitted on profile changes (name, default address).
type UserUpdatedData struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
}

// UserRoleChangedData is emitted when a user gains or loses seller status.
type UserRoleChangedData struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// SellerCreatedData is emitted when a user becomes a seller.
type SellerCreatedData struct {
	UserID     string `json:"user_id"`
	SellerID   string `json:"seller_id"`
	SellerName string `json:"seller_name"`
}

// BookCreatedData / BookUpdatedData carry the fields the search indexer
// needs to tokenize and project a BookSearchRecord.
type BookCreatedData struct {
	ISBN      string `json:"isbn"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Publisher string `json:"publisher,omitempty"`
	Genre     string `json:"genre,omitempty"`
	Language  string `json:"language,omitempty"`
}

type BookUpdatedData struct {
	ISBN      string `json:"isbn"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Publisher string `json:"publisher,omitempty"`
	Genre     string `json:"genre,omitempty"`
	Language  string `json:"language,omitempty"`
}

type BookDeletedData struct {
	ISBN string `json:"isbn"`
}

// BookStockUpdatedData carries one seller's offer after a stock/price change.
type BookStockUpdatedData struct {
	ISBN      string  `json:"isbn"`
	SellerID  string  `json:"seller_id"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Condition string  `json:"condition,omitempty"`
}

// OrderCreatedData is emitted immediately after an Order materializes from a
// confirmed CheckoutSession, before payment capture is recorded.
type OrderCreatedData struct {
	OrderID    string             `json:"order_id"`
	CustomerID string             `json:"customer_id"`
	Items      []OrderItemPayload `json:"items"`
	Total      string             `json:"total"`
	Currency   string             `json:"currency"`
}

type OrderPaidData struct {
	OrderID string `json:"order_id"`
}

type OrderShippedData struct {
	OrderID string `json:"order_id"`
}

type OrderDeliveredData struct {
	OrderID string `json:"order_id"`
}

type OrderCancelledData struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

type OrderRefundedData struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

type OrderItemStatusChangedData struct {
	OrderID     string `json:"order_id"`
	OrderItemID string `json:"order_item_id"`
	Status      string `json:"status"`
}

// InventoryReservationFailedData and SellerStatsUpdateFailedData are the two
// "critical" failure events the Compensation Orchestrator (C5) consumes.
type InventoryReservationFailedData struct {
	OrderID     string `json:"order_id"`
	OrderItemID string `json:"order_item_id"`
	Reason      string `json:"reason,omitempty"`
}

type SellerStatsUpdateFailedData struct {
	OrderID     string `json:"order_id"`
	OrderItemID string `json:"order_item_id"`
	SellerID    string `json:"seller_id"`
	Reason      string `json:"reason,omitempty"`
}

// NotificationFailedData is the "non-critical" failure event; alone it
// never triggers compensation.
type NotificationFailedData struct {
	OrderID        string `json:"order_id"`
	NotificationID string `json:"notification_id"`
	Reason         string `json:"reason,omitempty"`
}

// CompensationRequiredData is emitted at most once per orderId, per the
// ledger's sticky triggered flag.
type CompensationRequiredData struct {
	OrderID  string   `json:"order_id"`
	Failures []string `json:"failures"`
}

type CompensationCompletedData struct {
	OrderID     string `json:"order_id"`
	OrderItemID string `json:"order_item_id"`
	FailureType string `json:"failure_type"`
}

type OrderCancellationRequestedData struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}
