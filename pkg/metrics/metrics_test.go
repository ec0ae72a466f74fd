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

package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jeremyhahn/go-jwx/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsEnabled(t *testing.T) {
	// Metrics should be enabled by default
	if !IsEnabled() {
		t.Error("Expected metrics to be enabled by default")
	}

	Disable()
	if IsEnabled() {
		t.Error("Expected metrics to be disabled after Disable()")
	}

	Enable()
	if !IsEnabled() {
		t.Error("Expected metrics to be enabled after Enable()")
	}
}

func TestRecordOperation(t *testing.T) {
	Enable()
	OperationsTotal.Reset()
	OperationDuration.Reset()

	RecordOperation(OpSign, "ES256", StatusSuccess, 0.001)

	if count := testutil.CollectAndCount(OperationsTotal); count != 1 {
		t.Errorf("Expected 1 operation recorded, got %d", count)
	}
	if histCount := testutil.CollectAndCount(OperationDuration); histCount != 1 {
		t.Errorf("Expected 1 histogram sample, got %d", histCount)
	}

	RecordOperation(OpVerify, "ES256", StatusError, 0.001)
	if count := testutil.CollectAndCount(OperationsTotal); count != 2 {
		t.Errorf("Expected 2 operations recorded, got %d", count)
	}
}

func TestRecordOperationWhenDisabled(t *testing.T) {
	Disable()
	defer Enable()
	OperationsTotal.Reset()

	RecordOperation(OpEncrypt, "RSA1_5+A128CBC-HS256", StatusSuccess, 0.5)

	if count := testutil.CollectAndCount(OperationsTotal); count != 0 {
		t.Errorf("Expected 0 operations when disabled, got %d", count)
	}
}

func TestObserve(t *testing.T) {
	Enable()
	OperationsTotal.Reset()
	ErrorsTotal.Reset()

	start := time.Now()
	Observe(OpDecrypt, "RSA-OAEP+A256GCM", start, nil)
	Observe(OpDecrypt, "RSA-OAEP+A256GCM", start, fmt.Errorf("jwe: %w", types.ErrIntegrity))

	success := testutil.ToFloat64(OperationsTotal.WithLabelValues(OpDecrypt, "RSA-OAEP+A256GCM", StatusSuccess))
	if success != 1 {
		t.Errorf("Expected 1 success, got %v", success)
	}
	integrity := testutil.ToFloat64(ErrorsTotal.WithLabelValues(OpDecrypt, "RSA-OAEP+A256GCM", "integrity"))
	if integrity != 1 {
		t.Errorf("Expected 1 integrity error, got %v", integrity)
	}
}

func TestSetBackendSelected(t *testing.T) {
	Enable()
	BackendSelected.Reset()

	SetBackendSelected("RSA", "software")

	if v := testutil.ToFloat64(BackendSelected.WithLabelValues("RSA", "software")); v != 1 {
		t.Errorf("Expected gauge 1, got %v", v)
	}
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("x: %w", types.ErrDecode), "malformed_token"},
		{fmt.Errorf("x: %w", types.ErrMalformedToken), "malformed_token"},
		{fmt.Errorf("x: %w", types.ErrAlgorithmMismatch), "algorithm_mismatch"},
		{fmt.Errorf("x: %w", types.ErrUnsupportedAlgorithm), "unsupported_algorithm"},
		{fmt.Errorf("x: %w", types.ErrSignatureInvalid), "signature_invalid"},
		{fmt.Errorf("x: %w", types.ErrDecryption), "decryption"},
		{fmt.Errorf("x: %w", types.ErrKeyUsage), "key_usage"},
		{fmt.Errorf("x: %w", types.ErrKeyLoad), "key_load"},
		{errors.New("other"), "internal"},
	}
	for _, tt := range tests {
		if got := ErrorType(tt.err); got != tt.want {
			t.Errorf("ErrorType(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
