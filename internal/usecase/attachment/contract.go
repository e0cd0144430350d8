package attachment

// Store persists attachment bytes per subsidy.
type Store interface {
	Dir(subsidyID string) (string, error)
	EnsureDir(subsidyID string) (string, error)
	Write(subsidyID, name string, data []byte) error
}
