package waprovider

const (
	ErrorCodeNoSender     = "NO_SENDER_CONFIGURED" // neither override nor tenant default resolved
	ErrorCodeTimeout      = "TIMEOUT"              // context deadline hit mid-call
	ErrorCodeNetworkError = "NETWORK_ERROR"        // connection-level failures
)
