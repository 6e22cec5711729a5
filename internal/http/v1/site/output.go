package site

// AssembleOutput for POST /site/assemble
type AssembleOutput struct {
	Body Bundle
}

// PreviewOutput for GET /preview
type PreviewOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}
