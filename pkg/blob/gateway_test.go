package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainerName(t *testing.T) {
	assert.Equal(t, "servr-0748c7ba", ContainerName("servr-", "0748c7ba"))
	assert.Equal(t, "0748c7ba", ContainerName("", "0748c7ba"))
}
