package accesscontrol

import (
	"context"
	"sync"

	"github.com/consol-protocol/consold/internal/core/domain"
)

// Service is a static role registry implementing the access-control
// port. Real deployments delegate this to the protocol's role-based
// access control; the daemon loads grants from its configuration.
type Service struct {
	lock   sync.RWMutex
	grants map[string]map[string]struct{}
}

// NewService returns a registry with the given role -> accounts grants.
func NewService(grants map[string][]string) *Service {
	byRole := make(map[string]map[string]struct{})
	for role, accounts := range grants {
		byRole[role] = make(map[string]struct{})
		for _, account := range accounts {
			byRole[role][account] = struct{}{}
		}
	}
	return &Service{grants: byRole}
}

func (s *Service) CheckRole(
	_ context.Context, account, role string,
) error {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if _, ok := s.grants[role][account]; !ok {
		return domain.UnauthorizedError{
			Caller:       account,
			RequiredRole: role,
		}
	}
	return nil
}

// Grant adds a role to an account.
func (s *Service) Grant(account, role string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.grants[role] == nil {
		s.grants[role] = make(map[string]struct{})
	}
	s.grants[role][account] = struct{}{}
}
