package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "processing", "shipped", "delivered", "cancelled"} {
		parsed, err := ParseStatus(s)
		require.NoError(t, err, s)
		assert.Equal(t, Status(s), parsed)
	}
}

func TestParseStatus_Rejected(t *testing.T) {
	for _, s := range []string{"paid", "Pending", "PROCESSING", "canceled", "", "shipped "} {
		_, err := ParseStatus(s)
		assert.Error(t, err, "%q must not parse", s)
	}
}
