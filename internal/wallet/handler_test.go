package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler_Creation(t *testing.T) {
	// Simple test to verify handler can be created
	// Full handler logic testing is better done through integration tests
	assert.NotNil(t, NewHandler(nil))
}
