package storage

import "context"

// Backend объединяет все хранилища сервера в одном подключении
type Backend interface {
	UserStorage
	ArticleStorage

	// Ping проверяет доступность базы
	Ping(ctx context.Context) error

	// Close закрывает подключение
	Close() error
}

// Opener открывает подключение к backend
type Opener func(ctx context.Context) (Backend, error)
