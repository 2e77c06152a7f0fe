package errors

var (
	// ErrSendFieldsRequired rejects a send without a topic or a value.
	ErrSendFieldsRequired = E(Invalid, "Topic and value are required", nil)

	// ErrTopicRequired rejects a consume without a topic.
	ErrTopicRequired = E(Invalid, "Topic is required", nil)

	// ErrInvalidLimit rejects a consume whose limit is not a positive integer.
	ErrInvalidLimit = E(Invalid, "Limit must be a positive integer", nil)

	// ErrConsumerClosed is returned once the persistent consumer has been shut down.
	ErrConsumerClosed = E(Internal, "consumer is closed", nil)
)

func InvalidBodyErr(err error) error {
	return E(Invalid, "invalid request body", err)
}

func ValidationFailedErr(err error) error {
	return E(Invalid, "validation failed", err)
}

// ConnectionErr wraps a broker connection or authentication failure.
func ConnectionErr(msg string, err error) error {
	return E(Connection, msg, err)
}

// RunLoopErr wraps a failure of the consumer run loop.
func RunLoopErr(err error) error {
	return E(RunLoop, "consumer run loop stopped", err)
}
