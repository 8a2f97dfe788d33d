package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrUnknownDoor is returned for door names not configured for the facility.
var ErrUnknownDoor = errors.New("unknown door")

// DoorService owns the door open/closed flags. All mutation goes through its
// mutex; the mirror only ever receives a projection of the value and is
// never read back as the authority.
type DoorService struct {
	mu     sync.Mutex
	doors  map[string]bool
	mirror Mirror
	logger *zap.Logger
}

// NewDoorService builds the actuator-facing component. Every named door
// starts closed.
func NewDoorService(doorNames []string, m Mirror, logger *zap.Logger) *DoorService {
	doors := make(map[string]bool, len(doorNames))
	for _, name := range doorNames {
		doors[name] = false
	}
	return &DoorService{
		doors:  doors,
		mirror: m,
		logger: logger,
	}
}

// Init projects the initial (closed) state of every door to the mirror.
func (s *DoorService) Init(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, isOpen := range s.doors {
		s.project(ctx, name, isOpen)
	}
}

// Toggle flips the door flag and returns the new value. The flag change
// succeeds even when the mirror write does not.
func (s *DoorService) Toggle(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	isOpen, ok := s.doors[name]
	if !ok {
		return false, ErrUnknownDoor
	}
	s.doors[name] = !isOpen
	s.project(ctx, name, !isOpen)
	return !isOpen, nil
}

// Status returns the current flag for one door.
func (s *DoorService) Status(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	isOpen, ok := s.doors[name]
	if !ok {
		return false, ErrUnknownDoor
	}
	return isOpen, nil
}

// Statuses returns a snapshot of every door flag.
func (s *DoorService) Statuses() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]bool, len(s.doors))
	for name, isOpen := range s.doors {
		snapshot[name] = isOpen
	}
	return snapshot
}

func (s *DoorService) project(ctx context.Context, name string, isOpen bool) {
	if err := s.mirror.SetDoorStatus(ctx, name, isOpen); err != nil {
		s.logger.Warn("door mirror write failed",
			zap.String("door", name),
			zap.Bool("is_open", isOpen),
			zap.Error(err),
		)
	}
}
