package publish

// PublishOutput for POST /publish
type PublishOutput struct {
	Body PublishResult
}
