package templates

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/akmatori/snowbridge/internal/alerts"
	"github.com/akmatori/snowbridge/internal/database"
	"github.com/akmatori/snowbridge/internal/ticket"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore keeps templates in the ticket_templates table
type DBStore struct {
	db *gorm.DB
}

// NewDBStore creates a database-backed template store
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

// Lookup returns the template for key
func (s *DBStore) Lookup(ctx context.Context, key Key) (*ticket.Template, error) {
	var row database.TicketTemplate
	err := s.db.WithContext(ctx).
		Where("category = ? AND subtype_group = ? AND issue_key = ?", string(key.Category), string(key.Group), key.IssueKey).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", key, err)
	}
	return ticket.TemplateFromFields(row.Fields), nil
}

// List returns every stored template, sorted by key
func (s *DBStore) List(ctx context.Context) ([]Entry, error) {
	var rows []database.TicketTemplate
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			Key: Key{
				Category: alerts.Category(row.Category),
				Group:    alerts.SubtypeGroup(row.Group),
				IssueKey: row.IssueKey,
			},
			Template: ticket.TemplateFromFields(row.Fields),
		})
	}
	sortEntries(entries)
	return entries, nil
}

// Put creates or replaces the template for key
func (s *DBStore) Put(ctx context.Context, key Key, tmpl *ticket.Template) error {
	row := database.TicketTemplate{
		Category: string(key.Category),
		Group:    string(key.Group),
		IssueKey: key.IssueKey,
		Fields:   database.StringMap(tmpl.Fields()),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category"}, {Name: "subtype_group"}, {Name: "issue_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"fields", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save template %s: %w", key, err)
	}
	return nil
}

// Delete removes the template for key
func (s *DBStore) Delete(ctx context.Context, key Key) error {
	result := s.db.WithContext(ctx).
		Where("category = ? AND subtype_group = ? AND issue_key = ?", string(key.Category), string(key.Group), key.IssueKey).
		Delete(&database.TicketTemplate{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete template %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// Seed copies every template from src that is not already stored
func (s *DBStore) Seed(ctx context.Context, src Lister) (int, error) {
	entries, err := src.List(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, e := range entries {
		row := database.TicketTemplate{
			Category: string(e.Key.Category),
			Group:    string(e.Key.Group),
			IssueKey: e.Key.IssueKey,
			Fields:   database.StringMap(e.Template.Fields()),
		}
		result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if result.Error != nil {
			return created, fmt.Errorf("failed to seed template %s: %w", e.Key, result.Error)
		}
		created += int(result.RowsAffected)
	}

	log.Printf("DBStore: seeded %d of %d templates", created, len(entries))
	return created, nil
}
