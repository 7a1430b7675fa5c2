package model

// CleanupFailureKind — категория неудачного удаления изображения.
type CleanupFailureKind string

const (
	// CleanupTimeout — запрос к хранилищу не уложился в таймаут.
	CleanupTimeout CleanupFailureKind = "timeout"
	// CleanupRejected — хранилище ответило, но отказало в удалении.
	CleanupRejected CleanupFailureKind = "rejected"
	// CleanupUnavailable — транспортная ошибка или 5xx.
	CleanupUnavailable CleanupFailureKind = "unavailable"
	// CleanupNotConfigured — учётные данные хранилища не заданы.
	CleanupNotConfigured CleanupFailureKind = "not_configured"
)

// CleanupFailure — неудачная попытка удаления одного изображения.
type CleanupFailure struct {
	PublicID string
	Kind     CleanupFailureKind
}

// CleanupResult — итог best-effort удаления пачки изображений.
type CleanupResult struct {
	Attempted int
	Deleted   int
	Failures  []CleanupFailure
}

// DeleteResult — итог удаления одной или нескольких заявок.
type DeleteResult struct {
	DeletedCount    int
	ImagesAttempted int
	ImagesDeleted   int
	ImageFailures   []CleanupFailure
}
