package repcache

import (
	"strings"

	"github.com/google/uuid"
)

// OwnerEntry is the projection of one forest owner, sourced from the
// ForestCustomer link and the customer's self contact.
type OwnerEntry struct {
	Default   bool      `json:"default"`
	ContactID uuid.UUID `json:"contact_id"`
	NameKanji string    `json:"name_kanji"`
	NameKana  string    `json:"name_kana"`
}

// OwnerRollup is the customer_cache value on a Forest: entries keyed by
// customer id with both kanji and kana reprs. Entry positions follow the
// first occurrence of each customer in the source link order; a later
// link for the same customer overwrites the value in place
// (last-write-wins per customer id).
type OwnerRollup struct {
	List          map[string]OwnerEntry `json:"list"`
	ReprNameKanji string                `json:"repr_name_kanji"`
	ReprNameKana  string                `json:"repr_name_kana"`
}

// KeyedOwnerEntry pairs a customer id with its owner projection, in
// link order.
type KeyedOwnerEntry struct {
	CustomerID uuid.UUID
	Entry      OwnerEntry
}

// NewOwnerRollup folds ordered owner entries into the rollup.
func NewOwnerRollup(ordered []KeyedOwnerEntry) OwnerRollup {
	list := make(map[string]OwnerEntry, len(ordered))
	order := make([]string, 0, len(ordered))
	for _, item := range ordered {
		key := item.CustomerID.String()
		if _, seen := list[key]; !seen {
			order = append(order, key)
		}
		list[key] = item.Entry
	}
	kanji := make([]string, 0, len(order))
	kana := make([]string, 0, len(order))
	for _, key := range order {
		kanji = append(kanji, list[key].NameKanji)
		kana = append(kana, list[key].NameKana)
	}
	return OwnerRollup{
		List:          list,
		ReprNameKanji: strings.Join(kanji, ","),
		ReprNameKana:  strings.Join(kana, ","),
	}
}
