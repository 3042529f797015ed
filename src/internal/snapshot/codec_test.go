package snapshot

import (
	"context"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/casapps/cassupply/src/internal/database/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// One in-memory database shared by every session.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(models.AllModels()...)
	require.NoError(t, err)

	return db
}

func TestCodecEncode(t *testing.T) {
	db := setupTestDB(t)
	codec := NewCodec(db, DefaultRegistry())

	require.NoError(t, db.Create(&models.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "x",
		IsAdmin:      true,
	}).Error)
	require.NoError(t, db.Create(&models.Supplier{Name: "Acme Metals"}).Error)

	doc, err := codec.Encode(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SupportedSchemaVersion, doc.SchemaVersion)
	assert.WithinDuration(t, time.Now().UTC(), doc.GeneratedAt, time.Minute)

	// Every registered collection is present, even when empty.
	for _, name := range Names(codec.Registry()) {
		_, ok := doc.Collections[name]
		assert.True(t, ok, "collection %q missing from document", name)
	}
	assert.Len(t, doc.Collections["users"], 1)
	assert.Len(t, doc.Collections["suppliers"], 1)
	assert.Empty(t, doc.Collections["inventory"])
	assert.Empty(t, doc.Collections["orders"])

	assert.Equal(t, "alice", doc.Collections["users"][0]["username"])
}

func TestCodecDecodeRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	codec := NewCodec(db, DefaultRegistry())

	require.NoError(t, db.Create(&models.InventoryItem{SKU: "SKU-1", Name: "Widget", Quantity: 7}).Error)

	doc, err := codec.Encode(context.Background())
	require.NoError(t, err)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	decoded, err := codec.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, doc.SchemaVersion, decoded.SchemaVersion)
	assert.Len(t, decoded.Collections, len(doc.Collections))
	assert.Len(t, decoded.Collections["inventory"], 1)
	assert.Equal(t, "SKU-1", decoded.Collections["inventory"][0]["sku"])
}

func TestCodecDecodeMalformed(t *testing.T) {
	codec := NewCodec(setupTestDB(t), DefaultRegistry())

	cases := map[string]string{
		"not json":             `{{{`,
		"missing version":      `{"generatedAt":"2026-01-02T03:04:05Z","collections":{}}`,
		"missing generatedAt":  `{"schemaVersion":1,"collections":{}}`,
		"missing collections":  `{"schemaVersion":1,"generatedAt":"2026-01-02T03:04:05Z"}`,
		"version wrong type":   `{"schemaVersion":"one","generatedAt":"2026-01-02T03:04:05Z","collections":{}}`,
		"collections not map":  `{"schemaVersion":1,"generatedAt":"2026-01-02T03:04:05Z","collections":[]}`,
		"zero schema version":  `{"schemaVersion":0,"generatedAt":"2026-01-02T03:04:05Z","collections":{}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformedDocument)
		})
	}
}

func TestCodecDecodeUnsupportedVersion(t *testing.T) {
	codec := NewCodec(setupTestDB(t), DefaultRegistry())

	raw := `{"schemaVersion":99,"generatedAt":"2026-01-02T03:04:05Z","collections":{}}`
	_, err := codec.Decode([]byte(raw))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestCodecDecodeUnknownCollectionsTolerated(t *testing.T) {
	codec := NewCodec(setupTestDB(t), DefaultRegistry())

	raw := `{"schemaVersion":1,"generatedAt":"2026-01-02T03:04:05Z","collections":{"users":[],"legacy_notes":[{"body":"hi"}]}}`
	doc, err := codec.Decode([]byte(raw))
	require.NoError(t, err)
	assert.Contains(t, doc.Collections, "legacy_notes")
}

func TestCodecValidate(t *testing.T) {
	codec := NewCodec(setupTestDB(t), DefaultRegistry())

	assert.ErrorIs(t, codec.Validate(nil), ErrMalformedDocument)
	assert.ErrorIs(t, codec.Validate(&Document{SchemaVersion: 1}), ErrMalformedDocument)
	assert.ErrorIs(t, codec.Validate(&Document{
		SchemaVersion: SupportedSchemaVersion + 1,
		Collections:   map[string][]Record{},
	}), ErrUnsupportedVersion)
	assert.NoError(t, codec.Validate(&Document{
		SchemaVersion: 1,
		GeneratedAt:   time.Now(),
		Collections:   map[string][]Record{},
	}))
}
