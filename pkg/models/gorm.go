package models

func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&RegistryState{}, // Must be first - counters are read before any document exists
		&Document{},
		&AccessEntry{},
		&SharedDocIndexEntry{},
		&AuditEntry{},
	}
}
