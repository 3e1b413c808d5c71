package observability

const (
	MHTTPRequests        = "http_requests_total"
	MHTTPRequestDuration = "http_request_duration_seconds"
	MCheckoutRequests    = "checkout_requests_total"
	MOrdersCreated       = "orders_created_total"
	MEventPublishFailed  = "event_publish_failed_total"
)
