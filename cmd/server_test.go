package cmd

import (
	"testing"

	"krib-booking/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func TestWriteTimeoutCoversTestDelivery(t *testing.T) {
	assert.Greater(t, writeTimeout, usecase.DefaultTestDeliveryTimeout)
}
