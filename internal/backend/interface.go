package backend

import (
	"context"

	"finbook/internal/ports"
)

// Backend bundles the stores and the optional event publisher the web
// server runs on.
type Backend struct {
	Transactions ports.TransactionStore
	Expenses     ports.ExpenseStore
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher ports.RecordPublisher
	// Ping checks the store connection; nil for stores with nothing to dial.
	Ping func(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and its cleanup function
type BackendResult struct {
	Backend *Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File specific
	TransactionsFile string
	ExpensesFile     string

	// SQLite specific
	SQLiteDBPath string

	// Optional event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	// MemoryBackend keeps records only for the life of the process.
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
