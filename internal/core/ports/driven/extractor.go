package driven

// Extractor converts raw document bytes into plain text.
//
// Binary format extraction (PDF, DOCX, XLSX, ...) is an external
// collaborator concern: implementations for those formats are registered
// into the extractor registry by the surrounding application. The engine
// only relies on this contract.
type Extractor interface {
	// Extract returns the text content of the document. Unknown MIME
	// types return domain.ErrUnsupportedFormat; decode failures return
	// domain.ErrExtraction.
	Extract(content []byte, mimeType string) (string, error)
}
