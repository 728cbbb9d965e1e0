package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductCode_Valid(t *testing.T) {
	valid := []ProductCode{"PRD2001354649", "PRDTEST", "A_B-1", "0"}
	for _, c := range valid {
		assert.True(t, c.Valid(), "%q should be valid", c)
	}

	invalid := []ProductCode{"", "prd123", "${code}", "PRD 1", "PRD/1", "PRD.1", "PRÉ1"}
	for _, c := range invalid {
		assert.False(t, c.Valid(), "%q should be invalid", c)
	}
}

func TestMinPrice(t *testing.T) {
	_, ok := MinPrice(nil)
	assert.False(t, ok)

	_, ok = MinPrice([]DataOption{{Data: "empty"}})
	assert.False(t, ok)

	price, ok := MinPrice([]DataOption{
		{Data: "1GB", Plans: []Plan{{Days: 3, Price: 3300}, {Days: 5, Price: 5500}}},
		{Data: "2GB", Plans: []Plan{{Days: 1, Price: 1200}}},
	})
	assert.True(t, ok)
	assert.Equal(t, 1200.0, price)
}
