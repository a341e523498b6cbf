package constants

import (
	"github.com/go-playground/validator/v10"
)

type contextKey string

const (
	PoolKey   contextKey = "pool"
	TxKey     contextKey = "tx"
	LoggerKey contextKey = "logger"
)

// Validate is the shared validator instance used by request DTOs and the
// migration row validator.
var Validate = validator.New()
