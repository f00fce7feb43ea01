package storage

// StorageInterface is the blob-style store for content snapshots and history records.
// Names are slash-separated paths such as "content/reddit/2026-03-02.json".
type StorageInterface interface {
	Store(filename string, data []byte) error
	Retrieve(filename string) ([]byte, error)
	List(prefix string) ([]string, error)
	Delete(filename string) error
}
