package physical

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrEngineNotFound is returned when a plan lookup names an unknown engine.
var ErrEngineNotFound = errors.New("engine not found")

// Store provides database operations for the form catalogue.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the catalogue tables.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&EngineType{}, &Engine{}, &Environment{}, &Plan{})
}

// Ping checks that the database answers.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Ping()
}

// ListEngines returns every engine with its type, ordered by id.
func (s *Store) ListEngines() ([]Engine, error) {
	var engines []Engine
	if err := s.db.Preload("EngineType").Order("id ASC").Find(&engines).Error; err != nil {
		return nil, fmt.Errorf("list engines: %w", err)
	}
	return engines, nil
}

// PlansForEngine returns the active plans of the engine's type ordered by
// name, then id. Returns ErrEngineNotFound for an unknown engine.
func (s *Store) PlansForEngine(engineID uint) ([]Plan, error) {
	var engine Engine
	if err := s.db.First(&engine, "id = ?", engineID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEngineNotFound
		}
		return nil, fmt.Errorf("get engine: %w", err)
	}

	var plans []Plan
	err := s.db.Where("engine_type_id = ? AND is_active = ?", engine.EngineTypeID, true).
		Order("name ASC").Order("id ASC").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// Plan returns a plan with its environments ordered by id, or nil if it
// does not exist.
func (s *Store) Plan(planID uint) (*Plan, error) {
	var plan Plan
	err := s.db.Preload("Environments", func(db *gorm.DB) *gorm.DB {
		return db.Order("environments.id ASC")
	}).First(&plan, "id = ?", planID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &plan, nil
}
