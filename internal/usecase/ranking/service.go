package ranking

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/domain"
	domrecipe "github.com/kailas-cloud/glycomeal/internal/domain/recipe"
	"github.com/kailas-cloud/glycomeal/internal/logger"
)

// Service owns the three per-role rankings. Rebuild swaps them as a unit.
type Service struct {
	catalog Catalog

	mu       sync.RWMutex
	rankings map[domrecipe.Role]*Ranking
	roles    map[string]domrecipe.Role
}

// New creates a ranking service with empty rankings. Call Rebuild to load the catalog.
func New(catalog Catalog) *Service {
	s := &Service{catalog: catalog}
	s.swap(map[domrecipe.Role][]Entry{}, map[string]domrecipe.Role{})
	return s
}

// Rebuild classifies every stored recipe and replaces all three rankings.
func (s *Service) Rebuild(ctx context.Context) error {
	recipes, err := s.catalog.ListRecipes(ctx)
	if err != nil {
		return fmt.Errorf("list recipes: %w", err)
	}

	log := logger.FromContext(ctx)
	buckets := make(map[domrecipe.Role][]Entry, len(domrecipe.Roles))
	roles := make(map[string]domrecipe.Role, len(recipes))

	for _, rec := range recipes {
		ings, err := s.catalog.ListIngredients(ctx, rec.Name())
		if err != nil {
			return fmt.Errorf("list ingredients of %s: %w", rec.Name(), err)
		}
		role, ok := domrecipe.Classify(rec, ings)
		if !ok {
			log.Warn("recipe left unranked",
				zap.String("recipe", rec.Name()),
				zap.String("category", string(rec.Category())),
			)
			continue
		}
		buckets[role] = append(buckets[role], Entry{Name: rec.Name(), Score: rec.PreferenceScore()})
		roles[rec.Name()] = role
	}

	s.swap(buckets, roles)

	log.Info("rankings rebuilt",
		zap.Int("staple", len(buckets[domrecipe.RoleStaple])),
		zap.Int("vegetable", len(buckets[domrecipe.RoleVegetable])),
		zap.Int("protein", len(buckets[domrecipe.RoleProtein])),
		zap.Int("unranked", len(recipes)-len(roles)),
	)
	return nil
}

func (s *Service) swap(buckets map[domrecipe.Role][]Entry, roles map[string]domrecipe.Role) {
	rankings := make(map[domrecipe.Role]*Ranking, len(domrecipe.Roles))
	for _, role := range domrecipe.Roles {
		rankings[role] = NewRanking(buckets[role])
	}

	s.mu.Lock()
	s.rankings = rankings
	s.roles = roles
	s.mu.Unlock()
}

// Ranking returns the live ranking for a role.
func (s *Service) Ranking(role domrecipe.Role) (*Ranking, error) {
	if !role.IsValid() {
		return nil, domain.NewValidationError("category", fmt.Sprintf("unknown meal role %q", role))
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rankings[role], nil
}

// Top returns up to k entries of a role's ranking.
func (s *Service) Top(role domrecipe.Role, k int) ([]Entry, error) {
	r, err := s.Ranking(role)
	if err != nil {
		return nil, err
	}
	return r.TopEntries(k), nil
}

// Snapshot copies the top-k names of every role, indexed in assembly order.
func (s *Service) Snapshot(k int) [3][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out [3][]string
	for i, role := range domrecipe.Roles {
		out[i] = s.rankings[role].Top(k)
	}
	return out
}

// RoleOf returns the role a recipe is ranked under.
func (s *Service) RoleOf(name string) (domrecipe.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[name]
	return role, ok
}

// Update moves a recipe to its new score in whichever ranking holds it.
// Unranked recipes are ignored.
func (s *Service) Update(name string, score float64) bool {
	s.mu.RLock()
	role, ok := s.roles[name]
	r := s.rankings[role]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return r.Update(name, score)
}
