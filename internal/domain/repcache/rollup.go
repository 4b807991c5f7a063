// Package repcache holds the derived cache value types embedded in each
// aggregate's attributes, together with the pure rebuild functions that
// produce them from the current relation set. Rebuilds are always full,
// never incremental, so re-running one is safe and order-independent.
package repcache

import (
	"strings"

	"github.com/google/uuid"
)

// Cache keys inside an aggregate's attributes map
const (
	KeyUserCache     = "user_cache"
	KeyForestCache   = "forest_cache"
	KeyCustomerCache = "customer_cache"
)

// UserEntry is the projection of one linked user
type UserEntry struct {
	UserID   uuid.UUID `json:"user_id"`
	FullName string    `json:"full_name"`
}

// ForestEntry is the projection of one linked forest
type ForestEntry struct {
	InternalID string `json:"internal_id"`
}

// CustomerEntry is the projection of one linked customer
type CustomerEntry struct {
	CustomerID uuid.UUID `json:"customer_id"`
	NameKanji  string    `json:"name_kanji"`
	NameKana   string    `json:"name_kana"`
}

// Rollup is one cache field value: the entry list, its length, and the
// comma-joined display repr. Repr is derived purely from List, and Count
// always equals len(List).
type Rollup[T any] struct {
	Count int    `json:"count"`
	List  []T    `json:"list"`
	Repr  string `json:"repr"`
}

// NewRollup builds a rollup from the current entries. display projects one
// entry to its repr segment.
func NewRollup[T any](list []T, display func(T) string) Rollup[T] {
	if list == nil {
		list = []T{}
	}
	parts := make([]string, 0, len(list))
	for _, item := range list {
		parts = append(parts, display(item))
	}
	return Rollup[T]{
		Count: len(list),
		List:  list,
		Repr:  strings.Join(parts, ","),
	}
}

// UserRollup builds the user_cache value
func UserRollup(list []UserEntry) Rollup[UserEntry] {
	return NewRollup(list, func(e UserEntry) string { return e.FullName })
}

// ForestRollup builds the forest_cache value
func ForestRollup(list []ForestEntry) Rollup[ForestEntry] {
	return NewRollup(list, func(e ForestEntry) string { return e.InternalID })
}

// CustomerRollup builds the customer_cache value for archives and postal
// histories. The repr uses kanji names.
func CustomerRollup(list []CustomerEntry) Rollup[CustomerEntry] {
	return NewRollup(list, func(e CustomerEntry) string { return e.NameKanji })
}
