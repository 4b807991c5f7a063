package repcache

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserRollup(t *testing.T) {
	entries := []UserEntry{
		{UserID: uuid.New(), FullName: "山田 太郎"},
		{UserID: uuid.New(), FullName: "佐藤 花子"},
	}

	rollup := UserRollup(entries)

	assert.Equal(t, 2, rollup.Count)
	assert.Len(t, rollup.List, rollup.Count)
	assert.Equal(t, "山田 太郎,佐藤 花子", rollup.Repr)
}

func TestUserRollup_Empty(t *testing.T) {
	rollup := UserRollup(nil)

	assert.Equal(t, 0, rollup.Count)
	assert.NotNil(t, rollup.List)
	assert.Equal(t, "", rollup.Repr)
}

func TestForestRollup(t *testing.T) {
	rollup := ForestRollup([]ForestEntry{
		{InternalID: "A-001"},
		{InternalID: "A-002"},
		{InternalID: "B-010"},
	})

	assert.Equal(t, 3, rollup.Count)
	assert.Equal(t, "A-001,A-002,B-010", rollup.Repr)
}

func TestCustomerRollup_ReprUsesKanji(t *testing.T) {
	rollup := CustomerRollup([]CustomerEntry{
		{CustomerID: uuid.New(), NameKanji: "山田 太郎", NameKana: "ヤマダ タロウ"},
		{CustomerID: uuid.New(), NameKanji: "佐藤 花子", NameKana: "サトウ ハナコ"},
	})

	assert.Equal(t, 2, rollup.Count)
	assert.Equal(t, "山田 太郎,佐藤 花子", rollup.Repr)
}

func TestRollup_RebuildIsIdempotent(t *testing.T) {
	entries := []ForestEntry{{InternalID: "A-001"}, {InternalID: "A-002"}}

	first := ForestRollup(entries)
	second := ForestRollup(entries)

	assert.Equal(t, first, second)
}

func TestNewOwnerRollup(t *testing.T) {
	customerA := uuid.New()
	customerB := uuid.New()

	rollup := NewOwnerRollup([]KeyedOwnerEntry{
		{CustomerID: customerA, Entry: OwnerEntry{NameKanji: "山田 太郎", NameKana: "ヤマダ タロウ", Default: true}},
		{CustomerID: customerB, Entry: OwnerEntry{NameKanji: "佐藤 花子", NameKana: "サトウ ハナコ"}},
	})

	assert.Len(t, rollup.List, 2)
	assert.Equal(t, "山田 太郎,佐藤 花子", rollup.ReprNameKanji)
	assert.Equal(t, "ヤマダ タロウ,サトウ ハナコ", rollup.ReprNameKana)
	assert.True(t, rollup.List[customerA.String()].Default)
}

func TestNewOwnerRollup_LastWriteWinsPerCustomer(t *testing.T) {
	customerA := uuid.New()
	customerB := uuid.New()

	rollup := NewOwnerRollup([]KeyedOwnerEntry{
		{CustomerID: customerA, Entry: OwnerEntry{NameKanji: "旧姓 太郎", NameKana: "キュウセイ タロウ"}},
		{CustomerID: customerB, Entry: OwnerEntry{NameKanji: "佐藤 花子", NameKana: "サトウ ハナコ"}},
		{CustomerID: customerA, Entry: OwnerEntry{NameKanji: "山田 太郎", NameKana: "ヤマダ タロウ"}},
	})

	// one entry per customer, value from the latest link, position from the first
	assert.Len(t, rollup.List, 2)
	assert.Equal(t, "山田 太郎", rollup.List[customerA.String()].NameKanji)
	assert.Equal(t, "山田 太郎,佐藤 花子", rollup.ReprNameKanji)
	assert.Equal(t, "ヤマダ タロウ,サトウ ハナコ", rollup.ReprNameKana)
}

func TestNewOwnerRollup_Empty(t *testing.T) {
	rollup := NewOwnerRollup(nil)

	assert.Empty(t, rollup.List)
	assert.Equal(t, "", rollup.ReprNameKanji)
	assert.Equal(t, "", rollup.ReprNameKana)
}
