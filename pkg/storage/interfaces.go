package storage

import (
	"io"
	"time"
)

type Object struct {
	Key  string
	Size int64
}

type ObjectStorage interface {
	Upload(key string, reader io.Reader) error
	Delete(key string) error
	Move(srcKey, dstKey string) error
	List(prefix string) ([]Object, error)
	PresignGet(key string, expiry time.Duration) (string, error)
}
