package s3

import (
	"context"
	"io"
)

// Object определяет интерфейс для объектов в блоб-хранилище
type Object interface {
	io.ReadCloser
	ContentLength() int64
}

type object struct {
	io.ReadCloser
	contentLength int64
}

func (o *object) ContentLength() int64 {
	return o.contentLength
}

// Storage определяет интерфейс блоб-хранилища. Ключи непрозрачны:
// логическое имя файла никогда не участвует в формировании ключа.
type Storage interface {
	UploadBytes(ctx context.Context, key string, data []byte) error
	GetObject(ctx context.Context, key string) (Object, error)
	// DeleteObject идемпотентен: отсутствие объекта не является ошибкой
	DeleteObject(ctx context.Context, key string) error
}
