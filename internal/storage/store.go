package storage

import "io"

// Store is the sink for generated export artifacts, primarily the
// anonymization map CSVs. The interface keeps the tool layer testable
// with an in-memory fake.
type Store interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	List(prefix string) ([]string, error)
}
