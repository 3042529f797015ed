package snapshot

import (
	"fmt"

	json "github.com/goccy/go-json"
	"gorm.io/gorm"

	"github.com/casapps/cassupply/src/internal/database/models"
)

// Collection binds one datastore collection to its snapshot representation.
// The same registry drives both export and restore so the two sides can
// never disagree about which collections exist.
type Collection struct {
	Name    string
	Read    func(tx *gorm.DB) ([]Record, error)
	Replace func(tx *gorm.DB, records []Record) (int, error)
}

// ModelCollection builds a Collection backed by a GORM model type.
func ModelCollection[T any](name string) Collection {
	return Collection{
		Name: name,
		Read: func(tx *gorm.DB) ([]Record, error) {
			var rows []T
			if err := tx.Find(&rows).Error; err != nil {
				return nil, err
			}
			return toRecords(rows)
		},
		Replace: func(tx *gorm.DB, records []Record) (int, error) {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(new(T)).Error; err != nil {
				return 0, fmt.Errorf("clear collection %q: %w", name, err)
			}
			if len(records) == 0 {
				return 0, nil
			}
			var rows []T
			if err := fromRecords(records, &rows); err != nil {
				return 0, fmt.Errorf("decode collection %q: %w", name, err)
			}
			if err := tx.Create(&rows).Error; err != nil {
				return 0, fmt.Errorf("write collection %q: %w", name, err)
			}
			return len(rows), nil
		},
	}
}

// userArchive carries the credential hash that User's API serialization
// hides. Snapshots must be full fidelity: restoring a document without
// hashes would wipe every stored password.
type userArchive struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

// UserCollection builds the users collection with full-fidelity rows.
func UserCollection() Collection {
	return Collection{
		Name: "users",
		Read: func(tx *gorm.DB) ([]Record, error) {
			var rows []models.User
			if err := tx.Find(&rows).Error; err != nil {
				return nil, err
			}
			archive := make([]userArchive, len(rows))
			for i, row := range rows {
				archive[i] = userArchive{User: row, PasswordHash: row.PasswordHash}
			}
			return toRecords(archive)
		},
		Replace: func(tx *gorm.DB, records []Record) (int, error) {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
				return 0, fmt.Errorf("clear collection %q: %w", "users", err)
			}
			if len(records) == 0 {
				return 0, nil
			}
			var archive []userArchive
			if err := fromRecords(records, &archive); err != nil {
				return 0, fmt.Errorf("decode collection %q: %w", "users", err)
			}
			rows := make([]models.User, len(archive))
			for i, entry := range archive {
				rows[i] = entry.User
				rows[i].PasswordHash = entry.PasswordHash
			}
			if err := tx.Create(&rows).Error; err != nil {
				return 0, fmt.Errorf("write collection %q: %w", "users", err)
			}
			return len(rows), nil
		},
	}
}

// DefaultRegistry returns every live collection in fixed export order.
func DefaultRegistry() []Collection {
	return []Collection{
		UserCollection(),
		ModelCollection[models.Supplier]("suppliers"),
		ModelCollection[models.InventoryItem]("inventory"),
		ModelCollection[models.Order]("orders"),
	}
}

// Names returns the registered collection names in export order.
func Names(registry []Collection) []string {
	names := make([]string, 0, len(registry))
	for _, col := range registry {
		names = append(names, col.Name)
	}
	return names
}

// toRecords converts typed rows to generic records via their JSON form.
func toRecords(rows interface{}) ([]Record, error) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0)
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// fromRecords converts generic records back into typed rows.
func fromRecords(records []Record, out interface{}) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
