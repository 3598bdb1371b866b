package withdrawal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler_Creation(t *testing.T) {
	// Simple test to verify handler can be created
	// Status mapping and the full request flow are covered by integration tests
	assert.NotNil(t, NewHandler(nil))
}
