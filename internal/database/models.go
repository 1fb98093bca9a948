package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringMap is a JSON column holding string fields
type StringMap map[string]string

// Scan implements the sql.Scanner interface
func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(StringMap)
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringMap", value)
	}
	return json.Unmarshal(data, m)
}

// Value implements the driver.Valuer interface
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// TicketTemplate stores the incident fields configured for one issue key
type TicketTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Category  string    `gorm:"uniqueIndex:idx_template_key;size:64;not null" json:"category"`
	Group     string    `gorm:"column:subtype_group;uniqueIndex:idx_template_key;size:64;not null" json:"group"`
	IssueKey  string    `gorm:"uniqueIndex:idx_template_key;size:255;not null" json:"issue_key"`
	Fields    StringMap `gorm:"type:text" json:"fields"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TicketTemplate) TableName() string {
	return "ticket_templates"
}
