package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jusunglee/mbta-board/internal/models"
)

var (
	// ErrGroupNotFound is returned for groups that are unknown or not rendered
	ErrGroupNotFound = errors.New("group not found")
	// ErrPanelNotFound is returned when none of the requested panels is rendered
	ErrPanelNotFound = errors.New("panel not found")
)

// Store holds the most recently rendered board for concurrent readers
type Store struct {
	mu         sync.RWMutex
	order      []string
	groups     map[string]models.GroupBoard
	panels     map[string]models.Panel
	active     string
	lastUpdate time.Time
}

// NewStore creates a new store. order fixes the order groups are listed in.
func NewStore(order []string) *Store {
	return &Store{
		order:  append([]string(nil), order...),
		groups: make(map[string]models.GroupBoard),
		panels: make(map[string]models.Panel),
	}
}

// UpdateGroup replaces the rendered state of one group
func (s *Store) UpdateGroup(board models.GroupBoard) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.groups[board.Name]; ok {
		for _, p := range old.Panels {
			delete(s.panels, p.ID)
		}
	}

	s.groups[board.Name] = board
	for _, p := range board.Panels {
		s.panels[p.ID] = p
	}

	if !board.UpdatedAt.IsZero() {
		s.lastUpdate = board.UpdatedAt
	} else {
		s.lastUpdate = time.Now()
	}
}

// ClearGroup removes a group's rendered state
func (s *Store) ClearGroup(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.groups[name]
	if !ok {
		return
	}
	for _, p := range old.Panels {
		delete(s.panels, p.ID)
	}
	delete(s.groups, name)
}

// SetActive records the group currently on screen in kiosk mode
func (s *Store) SetActive(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = name
}

// Active returns the group currently on screen, or "" when all are shown
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// GetBoard returns every rendered group in catalog order
func (s *Store) GetBoard() models.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()

	board := models.Board{
		Groups:     make([]models.GroupBoard, 0, len(s.groups)),
		Active:     s.active,
		LastUpdate: s.lastUpdate,
	}
	for _, name := range s.order {
		if g, ok := s.groups[name]; ok {
			board.Groups = append(board.Groups, g)
		}
	}
	return board
}

// GetGroup returns one rendered group
func (s *Store) GetGroup(name string) (models.GroupBoard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[name]
	if !ok {
		return models.GroupBoard{}, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	return g, nil
}

// GetPanels returns the rendered panels with the given ids, skipping ids that
// are not on the board
func (s *Store) GetPanels(ids []string) ([]models.Panel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Panel, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.panels[id]; ok {
			result = append(result, p)
		}
	}

	if len(result) == 0 {
		return nil, ErrPanelNotFound
	}

	return result, nil
}

// GetAlerts returns every banner currently on the board
func (s *Store) GetAlerts() []models.Banner {
	return s.GetBoard().Banners()
}

// GetLastUpdate returns the time of the last render
func (s *Store) GetLastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}
