package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/repair-commons/repaircafe/internal/model"
)

// searchLimit caps attendee search results.
const searchLimit = 20

// CheckinStore is the persistence surface for the check-in desk.
type CheckinStore interface {
	FindByQR(ctx context.Context, eventID, qrCode string) (*model.Registration, error)
	Search(ctx context.Context, eventID, query string, limit int) ([]model.Registration, error)
	CheckIn(ctx context.Context, eventID, regID string) error
}

// CheckinService resolves QR codes or free-text searches to registrations
// and flips them to checked_in.
type CheckinService struct {
	regs CheckinStore
}

// NewCheckinService constructs a CheckinService.
func NewCheckinService(regs CheckinStore) *CheckinService {
	return &CheckinService{regs: regs}
}

// LookupByQR returns the matching non-cancelled registration with its
// items. Cancelled registrations are indistinguishable from absent ones.
func (s *CheckinService) LookupByQR(ctx context.Context, eventID, qrCode string) (*model.Registration, error) {
	if qrCode == "" {
		return nil, fmt.Errorf("%w: qr code is required", model.ErrValidation)
	}
	return s.regs.FindByQR(ctx, eventID, qrCode)
}

// Search matches attendees by name or email substring, case-insensitive.
// Queries under two characters return an empty result rather than an error.
func (s *CheckinService) Search(ctx context.Context, eventID, query string) ([]model.Registration, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, nil
	}
	return s.regs.Search(ctx, eventID, query, searchLimit)
}

// CheckIn marks a registration checked in. Absent or cancelled
// registrations yield model.ErrNotFound; repeats yield
// model.ErrAlreadyCheckedIn.
func (s *CheckinService) CheckIn(ctx context.Context, eventID, regID string) error {
	if regID == "" {
		return fmt.Errorf("%w: registration id is required", model.ErrValidation)
	}
	return s.regs.CheckIn(ctx, eventID, regID)
}
