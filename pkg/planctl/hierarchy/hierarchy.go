// Package hierarchy guards the work item parent graph against cycles.
// Relationships are stored as a ParentID column, never as in-memory
// back-pointers, and the walk carries a visited set so it terminates even
// over a corrupted graph.
package hierarchy

import (
	"context"

	"github.com/raids-lab/tracker/pkg/logutils"
)

// ParentLookup resolves a work item's parent pointer. A nil result means
// the item has no parent (or no longer exists, which ends the walk the
// same way).
type ParentLookup interface {
	ParentID(ctx context.Context, itemID uint) (*uint, error)
}

type Service struct {
	parents ParentLookup
}

func NewService(parents ParentLookup) *Service {
	return &Service{parents: parents}
}

// WouldCreateCycle reports whether making proposedParentID the parent of
// itemID would close a loop. It walks parent pointers upward from the
// proposed parent; reaching itemID means the assignment would create a
// cycle. Revisiting a node means the stored graph already contains a cycle
// that does not involve itemID — that corruption is logged but does not
// block the caller's operation, since it predates it.
//
// The check is read-only and must run before every parent reassignment.
func (s *Service) WouldCreateCycle(ctx context.Context, itemID, proposedParentID uint) (bool, error) {
	if proposedParentID == itemID {
		return true, nil
	}

	visited := map[uint]bool{proposedParentID: true}
	current := proposedParentID

	for {
		parent, err := s.parents.ParentID(ctx, current)
		if err != nil {
			return false, err
		}
		if parent == nil {
			return false, nil
		}
		if *parent == itemID {
			return true, nil
		}
		if visited[*parent] {
			logutils.Log.WithFields(logutils.Fields{
				"item":   itemID,
				"parent": proposedParentID,
				"node":   *parent,
			}).Warn("existing cycle detected in work item hierarchy")
			return false, nil
		}
		visited[*parent] = true
		current = *parent
	}
}
