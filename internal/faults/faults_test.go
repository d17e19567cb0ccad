// File: internal/faults/faults_test.go
package faults

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("BitBlt failed")
	err := Wrap(ClassAcquisition, cause)
	require.Error(t, err)

	assert.True(t, Is(err, ClassAcquisition))
	assert.False(t, Is(err, ClassTransport))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ACQUISITION_FAILURE")
	assert.Contains(t, err.Error(), "BitBlt failed")
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(ClassExecution, nil))
}

func TestNewFormats(t *testing.T) {
	err := New(ClassDecode, "%d consecutive unusable replies", 3)
	require.Error(t, err)
	assert.True(t, Is(err, ClassDecode))
	assert.Contains(t, err.Error(), "3 consecutive unusable replies")
}

func TestIsSeesThroughWrapping(t *testing.T) {
	inner := New(ClassValidation, "x out of range")
	outer := fmt.Errorf("step 4: %w", inner)
	assert.True(t, Is(outer, ClassValidation))
}

func TestIsOnUnclassifiedError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), ClassExecution))
	assert.False(t, Is(nil, ClassExecution))
}
