package models

// AllModels returns every model migrated at startup, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Supplier{},
		&InventoryItem{},
		&Order{},
		&Backup{},
		&AutoBackupSetting{},
	}
}
