package content

// Reader loads a persisted attachment.
type Reader interface {
	Read(subsidyID, name string) ([]byte, error)
}

// Converter turns documents into markdown text.
type Converter interface {
	Markdown(name string, data []byte) (string, error)
	PDFPages(data []byte) ([]string, error)
}
