package model

import (
	"math"
	"regexp"
)

var productCodeRe = regexp.MustCompile(`^[A-Z0-9_-]+$`)

// ProductCode is the opaque Apollo identifier of a sellable eSIM product (e.g. PRD2001354649).
type ProductCode string

func (c ProductCode) String() string { return string(c) }

// Valid reports whether the code is non-empty and uses only A-Z, 0-9, '_' and '-'.
func (c ProductCode) Valid() bool {
	return productCodeRe.MatchString(string(c))
}

// ProductDetail is the upstream document as decoded from JSON. Its shape is not
// guaranteed; see the normalizer package for how pricing is read out of it.
type ProductDetail = map[string]any

// Plan is one purchasable (duration, price) pair.
type Plan struct {
	Days  int     `json:"days"`
	Price float64 `json:"price"`
}

// DataOption is a data-allowance tier (e.g. "매일 1GB") with its plans.
type DataOption struct {
	Data  string `json:"data"`
	Plans []Plan `json:"plans"`
}

// MinPrice returns the cheapest plan price across all options.
// ok is false when there are no plans at all.
func MinPrice(options []DataOption) (price float64, ok bool) {
	price = math.Inf(1)
	for _, opt := range options {
		for _, p := range opt.Plans {
			if p.Price < price {
				price = p.Price
				ok = true
			}
		}
	}
	if !ok {
		return 0, false
	}
	return price, true
}
