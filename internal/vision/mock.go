package vision

import (
	"fmt"

	"gocv.io/x/gocv"
)

// MockMasker is a test implementation of the Masker interface.
// It allows tests to control the mask results.
type MockMasker struct {
	mask  *gocv.Mat
	err   error
	calls int
}

// NewMockMasker creates a new MockMasker instance.
func NewMockMasker() *MockMasker {
	return &MockMasker{}
}

// SetMask sets the mask that will be returned by Mask. The mock does not
// take ownership; each call returns a clone.
func (m *MockMasker) SetMask(mask *gocv.Mat) {
	m.mask = mask
}

// SetError sets the error that will be returned by Mask.
func (m *MockMasker) SetError(err error) {
	m.err = err
}

// Calls reports how many times Mask has been invoked.
func (m *MockMasker) Calls() int {
	return m.calls
}

// Mask returns a clone of the pre-configured mask or the configured error.
func (m *MockMasker) Mask(frame *gocv.Mat) (gocv.Mat, error) {
	m.calls++
	if m.err != nil {
		return gocv.Mat{}, m.err
	}
	if m.mask == nil {
		return gocv.Mat{}, fmt.Errorf("mock masker: no mask configured")
	}
	return m.mask.Clone(), nil
}

// Close is a no-op for the mock masker.
func (m *MockMasker) Close() error {
	return nil
}
