package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fabrika/internal/core/entity"
)

type mockDocument struct {
	entity.BaseDocument
	Code     string  `db:"code" json:"code"`
	Name     string  `db:"name" json:"name"`
	Note     *string `db:"note" json:"note,omitempty"`
	Derived  string  `db:"-" json:"derived"`
	internal string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockDocument]()

	expected := []string{"id", "version", "created_at", "updated_at", "code", "name", "note"}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}

	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "derived")
	assert.NotContains(t, cols, "internal")
}

func TestStructToMap(t *testing.T) {
	note := "delivered partially"
	doc := mockDocument{
		BaseDocument: entity.NewBaseDocument(),
		Code:         "M-001",
		Name:         "Rebar 12mm",
		Note:         &note,
	}
	doc.Version = 3

	m := StructToMap(&doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, "M-001", m["code"])
	assert.Equal(t, "Rebar 12mm", m["name"])
	assert.Equal(t, &note, m["note"])
	assert.NotContains(t, m, "derived")
}

func TestStructToMap_EmbeddedTimestamps(t *testing.T) {
	doc := mockDocument{BaseDocument: entity.NewBaseDocument()}

	m := StructToMap(doc)

	createdAt, ok := m["created_at"].(time.Time)
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().UTC(), createdAt, time.Minute)
}

func TestExtractDBColumns_Cached(t *testing.T) {
	first := ExtractDBColumns[mockDocument]()
	second := ExtractDBColumns[mockDocument]()
	assert.Equal(t, first, second)
}
