package domain

// Upload описывает временный файл импорта в хранилище (MinIO или локальный диск)
type Upload struct {
	Key string
	// Передайте значение -1 в Size, если размер потока неизвестен
	Size        int64
	ContentType string
}

func NewUpload(key string, size int64, contentType string) *Upload {
	return &Upload{
		Key:         key,
		Size:        size,
		ContentType: contentType,
	}
}
