package logkey

// Common keys for structured log attributes, so grepping logs stays sane.
const (
	TraceID   = "TRACE ID"
	ERROR     = "ERROR"
	UserID    = "UserID"
	CartID    = "CartID"
	OrderID   = "OrderID"
	ProductID = "ProductID"
)
