// Package models defines the persisted entities of Echoes of Art.
//
// Primary keys are UUID strings assigned in BeforeCreate hooks so the same
// schema migrates on Postgres and on SQLite. Membership relations (likes,
// bookmarks, saves, follows) use composite primary keys, which makes each of
// them a set at the storage level.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// StringArray is stored as a JSON array in a text column.
type StringArray []string

// Scan implements sql.Scanner.
func (a *StringArray) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*a = StringArray{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported StringArray source %T", value)
	}
	if len(raw) == 0 {
		*a = StringArray{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to decode string array: %w", err)
	}
	*a = out
	return nil
}

// Value implements driver.Valuer.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Follow{},
		&Post{},
		&Like{},
		&SavedPost{},
		&Comment{},
		&Writing{},
		&WritingLike{},
		&WritingBookmark{},
		&WritingReport{},
		&WritingComment{},
	}
}

func generateUUID() string {
	return uuid.New().String()
}
