package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetProfile(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")
	assert.Equal(t, "default", getProfile())

	t.Setenv("AWS_PROFILE", "payments")
	assert.Equal(t, "payments", getProfile())
}
