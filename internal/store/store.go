package store

// Logical keys of the persisted entries. The names match the reference
// client's local-storage keys so an exported database stays recognizable.
const (
	KeyTheme           = "sakura_theme"
	KeyLanguage        = "sakura_lang"
	KeyActiveSession   = "sakura_active_session"
	KeyUserRegistry    = "sakura_registry"
	KeyProjectRegistry = "sakura_projects_db"
)

// KV is the persistence layer: a key-value store of whole JSON documents.
// Writes replace the entire value for a key; there are no transactional
// guarantees across keys and no cross-process locking (last write wins).
//
// SQLiteKV is the durable implementation; MemoryKV backs tests.
type KV interface {
	// Get unmarshals the value for key into out. The boolean reports
	// whether the key was present.
	Get(key string, out any) (bool, error)

	// Put marshals value and stores it under key, replacing any previous
	// value.
	Put(key string, value any) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	Close() error
}
