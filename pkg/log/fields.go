package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Service
	FieldService = "service"

	// Stream
	FieldStreamer = "streamer"
	FieldRoomID   = "room_id"
	FieldSender   = "sender"
	FieldEvent    = "event"

	// Subscribers
	FieldClientID    = "client_id"
	FieldSubscribers = "subscribers"
	FieldBatchSize   = "batch_size"

	// Log type (for status lines)
	FieldLogType  = "log_type"
	LogTypeStatus = "status"
)
