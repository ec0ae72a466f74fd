// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-jwx.
//
// go-jwx is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for the JWS and JWE
// engines and the provider factory. Collectors register with the default
// registry; embedding applications expose them with promhttp as usual.
package metrics

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/jeremyhahn/go-jwx/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all go-jwx metrics
	Namespace = "jwx"

	// Label names
	LabelOperation = "operation"
	LabelAlgorithm = "algorithm"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
	LabelFamily    = "family"
	LabelBackend   = "backend"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpSign     = "sign"
	OpVerify   = "verify"
	OpEncrypt  = "encrypt"
	OpDecrypt  = "decrypt"
	OpGenerate = "generate"
	OpLoad     = "load"
)

var (
	// OperationsTotal counts engine and factory operations by type, algorithm and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of JOSE operations by type, algorithm, and status",
		},
		[]string{LabelOperation, LabelAlgorithm, LabelStatus},
	)

	// OperationDuration tracks operation latency in seconds.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of JOSE operations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{LabelOperation, LabelAlgorithm},
	)

	// ErrorsTotal counts failures by operation, algorithm and error type.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation, algorithm, and error type",
		},
		[]string{LabelOperation, LabelAlgorithm, LabelErrorType},
	)

	// BackendSelected is 1 for the backend the provider probe chose per key family.
	BackendSelected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "backend_selected",
			Help:      "Provider backend selected for each key family (1 = selected)",
		},
		[]string{LabelFamily, LabelBackend},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordOperation records an operation with its duration and status.
func RecordOperation(operation, algorithm, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, algorithm, status).Inc()
	OperationDuration.WithLabelValues(operation, algorithm).Observe(duration)
}

// RecordError records a failure classified by error type.
func RecordError(operation, algorithm, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, algorithm, errorType).Inc()
}

// Observe records the outcome of an operation started at start. A nil err
// is a success; otherwise the error is classified with ErrorType.
//
// Example:
//
//	start := time.Now()
//	token, err := engine.Create(payload)
//	metrics.Observe(metrics.OpSign, "ES256", start, err)
func Observe(operation, algorithm string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	if err != nil {
		RecordOperation(operation, algorithm, StatusError, duration)
		RecordError(operation, algorithm, ErrorType(err))
		return
	}
	RecordOperation(operation, algorithm, StatusSuccess, duration)
}

// SetBackendSelected marks backend as the selection for a key family.
func SetBackendSelected(family, backend string) {
	if !enabled.Load() {
		return
	}
	BackendSelected.WithLabelValues(family, backend).Set(1)
}

// ErrorType maps an error onto a low-cardinality label value.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, types.ErrMalformedToken), errors.Is(err, types.ErrDecode):
		return "malformed_token"
	case errors.Is(err, types.ErrAlgorithmMismatch):
		return "algorithm_mismatch"
	case errors.Is(err, types.ErrUnsupportedAlgorithm):
		return "unsupported_algorithm"
	case errors.Is(err, types.ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, types.ErrIntegrity):
		return "integrity"
	case errors.Is(err, types.ErrDecryption):
		return "decryption"
	case errors.Is(err, types.ErrKeyUsage):
		return "key_usage"
	case errors.Is(err, types.ErrKeyLoad):
		return "key_load"
	default:
		return "internal"
	}
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
