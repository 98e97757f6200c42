package physical

import (
	"errors"
	"fmt"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed is the YAML document describing the catalogue.
//
//	engineTypes:
//	  - {id: 1, name: mysql}
//	engines:
//	  - {id: 1, engineType: mysql, version: "5.6"}
//	environments:
//	  - {id: 9, name: dev}
//	plans:
//	  - {id: 5, name: small, engineType: mysql, environments: [dev]}
type Seed struct {
	EngineTypes  []SeedEngineType  `yaml:"engineTypes"`
	Engines      []SeedEngine      `yaml:"engines"`
	Environments []SeedEnvironment `yaml:"environments"`
	Plans        []SeedPlan        `yaml:"plans"`
}

type SeedEngineType struct {
	ID   uint   `yaml:"id"`
	Name string `yaml:"name"`
}

type SeedEngine struct {
	ID         uint   `yaml:"id"`
	EngineType string `yaml:"engineType"`
	Version    string `yaml:"version"`
}

type SeedEnvironment struct {
	ID   uint   `yaml:"id"`
	Name string `yaml:"name"`
}

type SeedPlan struct {
	ID           uint     `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description,omitempty"`
	EngineType   string   `yaml:"engineType"`
	Environments []string `yaml:"environments"`
	// Active defaults to true when omitted.
	Active *bool `yaml:"active,omitempty"`
}

// LoadSeedFile reads and validates a seed file.
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("invalid seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Validate checks ids are positive and unique per kind and that every
// reference resolves.
func (s *Seed) Validate() error {
	var errs []error

	typeIDs := mapset.NewThreadUnsafeSet[uint]()
	typeNames := mapset.NewThreadUnsafeSet[string]()
	for _, et := range s.EngineTypes {
		errs = append(errs, checkEntry("engine type", et.ID, et.Name, typeIDs, typeNames))
	}

	engineIDs := mapset.NewThreadUnsafeSet[uint]()
	for _, e := range s.Engines {
		switch {
		case e.ID == 0:
			errs = append(errs, fmt.Errorf("engine %q: id must be positive", e.EngineType))
		case !engineIDs.Add(e.ID):
			errs = append(errs, fmt.Errorf("engine %d: duplicate id", e.ID))
		}
		if !typeNames.Contains(e.EngineType) {
			errs = append(errs, fmt.Errorf("engine %d: unknown engine type %q", e.ID, e.EngineType))
		}
	}

	envIDs := mapset.NewThreadUnsafeSet[uint]()
	envNames := mapset.NewThreadUnsafeSet[string]()
	for _, env := range s.Environments {
		errs = append(errs, checkEntry("environment", env.ID, env.Name, envIDs, envNames))
	}

	planIDs := mapset.NewThreadUnsafeSet[uint]()
	for _, p := range s.Plans {
		switch {
		case p.ID == 0:
			errs = append(errs, fmt.Errorf("plan %q: id must be positive", p.Name))
		case !planIDs.Add(p.ID):
			errs = append(errs, fmt.Errorf("plan %d: duplicate id", p.ID))
		}
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("plan %d: name is required", p.ID))
		}
		if !typeNames.Contains(p.EngineType) {
			errs = append(errs, fmt.Errorf("plan %d: unknown engine type %q", p.ID, p.EngineType))
		}
		if unknown := mapset.NewThreadUnsafeSet(p.Environments...).Difference(envNames); unknown.Cardinality() > 0 {
			errs = append(errs, fmt.Errorf("plan %d: unknown environments %v", p.ID, unknown.ToSlice()))
		}
	}

	return errors.Join(errs...)
}

func checkEntry(kind string, id uint, name string, ids mapset.Set[uint], names mapset.Set[string]) error {
	switch {
	case id == 0:
		return fmt.Errorf("%s %q: id must be positive", kind, name)
	case name == "":
		return fmt.Errorf("%s %d: name is required", kind, id)
	case !ids.Add(id):
		return fmt.Errorf("%s %d: duplicate id", kind, id)
	case !names.Add(name):
		return fmt.Errorf("%s %q: duplicate name", kind, name)
	}
	return nil
}

// LoadSeed makes the store match the seed in one transaction. Rows are
// upserted, plan environment links replaced with the ones listed in the
// seed, and rows missing from the seed deleted.
func (s *Store) LoadSeed(seed *Seed) error {
	if err := seed.Validate(); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		upsert := func() *gorm.DB {
			return tx.Clauses(clause.OnConflict{UpdateAll: true})
		}

		typeIDs := make(map[string]uint, len(seed.EngineTypes))
		for _, et := range seed.EngineTypes {
			row := EngineType{ID: et.ID, Name: et.Name}
			if err := upsert().Create(&row).Error; err != nil {
				return fmt.Errorf("upsert engine type %q: %w", et.Name, err)
			}
			typeIDs[et.Name] = et.ID
		}

		for _, e := range seed.Engines {
			row := Engine{ID: e.ID, EngineTypeID: typeIDs[e.EngineType], Version: e.Version}
			if err := upsert().Omit("EngineType").Create(&row).Error; err != nil {
				return fmt.Errorf("upsert engine %d: %w", e.ID, err)
			}
		}

		envs := make(map[string]Environment, len(seed.Environments))
		for _, env := range seed.Environments {
			row := Environment{ID: env.ID, Name: env.Name}
			if err := upsert().Create(&row).Error; err != nil {
				return fmt.Errorf("upsert environment %q: %w", env.Name, err)
			}
			envs[env.Name] = row
		}

		for _, p := range seed.Plans {
			active := true
			if p.Active != nil {
				active = *p.Active
			}
			row := Plan{
				ID:           p.ID,
				Name:         p.Name,
				Description:  p.Description,
				IsActive:     active,
				EngineTypeID: typeIDs[p.EngineType],
			}
			if err := upsert().Omit("EngineType", "Environments").Create(&row).Error; err != nil {
				return fmt.Errorf("upsert plan %d: %w", p.ID, err)
			}

			linked := make([]Environment, 0, len(p.Environments))
			for _, name := range p.Environments {
				linked = append(linked, envs[name])
			}
			if err := tx.Model(&row).Association("Environments").Replace(linked); err != nil {
				return fmt.Errorf("link plan %d environments: %w", p.ID, err)
			}
		}
		return prune(tx, seed)
	})
}

// prune deletes the rows the seed no longer lists. Plans go first, and
// engine types last, since both plans and engines reference them.
func prune(tx *gorm.DB, seed *Seed) error {
	planIDs := make([]uint, len(seed.Plans))
	for i, p := range seed.Plans {
		planIDs[i] = p.ID
	}
	var stale []uint
	if err := notIn(tx.Model(&Plan{}), planIDs).Pluck("id", &stale).Error; err != nil {
		return fmt.Errorf("find removed plans: %w", err)
	}
	for _, id := range stale {
		if err := tx.Model(&Plan{ID: id}).Association("Environments").Clear(); err != nil {
			return fmt.Errorf("unlink plan %d environments: %w", id, err)
		}
	}
	if len(stale) > 0 {
		if err := tx.Delete(&Plan{}, stale).Error; err != nil {
			return fmt.Errorf("delete removed plans: %w", err)
		}
	}

	engineIDs := make([]uint, len(seed.Engines))
	for i, e := range seed.Engines {
		engineIDs[i] = e.ID
	}
	if err := notIn(tx, engineIDs).Delete(&Engine{}).Error; err != nil {
		return fmt.Errorf("delete removed engines: %w", err)
	}

	envIDs := make([]uint, len(seed.Environments))
	for i, env := range seed.Environments {
		envIDs[i] = env.ID
	}
	if err := notIn(tx, envIDs).Delete(&Environment{}).Error; err != nil {
		return fmt.Errorf("delete removed environments: %w", err)
	}

	typeIDs := make([]uint, len(seed.EngineTypes))
	for i, et := range seed.EngineTypes {
		typeIDs[i] = et.ID
	}
	if err := notIn(tx, typeIDs).Delete(&EngineType{}).Error; err != nil {
		return fmt.Errorf("delete removed engine types: %w", err)
	}
	return nil
}

// notIn scopes q to rows whose id is not in keep. An empty keep matches
// every row.
func notIn(q *gorm.DB, keep []uint) *gorm.DB {
	if len(keep) == 0 {
		return q.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	return q.Where("id NOT IN ?", keep)
}
