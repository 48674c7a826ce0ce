package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKnownTag(t *testing.T) {
	assert.Equal(t, IntentOrderRequest, Parse("order-request"))
	assert.Equal(t, IntentPickupSite, Parse("pickup-site-selection"))
}

func TestParseUnknownTagIsUnclassifiable(t *testing.T) {
	assert.Equal(t, IntentUnclassifiable, Parse("weather-forecast"))
	assert.Equal(t, IntentUnclassifiable, Parse(""))
}
