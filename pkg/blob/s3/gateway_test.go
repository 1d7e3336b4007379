package s3

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestIsBucketNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"typed NoSuchBucket", &types.NoSuchBucket{}, true},
		{"typed NotFound", &types.NotFound{}, true},
		{"wrapped api error", fmt.Errorf("op: %w", &smithy.GenericAPIError{Code: "NotFound"}), true},
		{"api error NoSuchBucket", &smithy.GenericAPIError{Code: "NoSuchBucket"}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", errors.New("NotFound"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isBucketNotFound(tt.err))
		})
	}
}
