package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/repair-commons/repaircafe/internal/model"
)

// ItemStore is the persistence surface for the repair queue.
type ItemStore interface {
	GetEventItem(ctx context.Context, eventID, itemID string) (*model.Item, error)
	GetByID(ctx context.Context, itemID string) (*model.Item, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Item, error)
	Claim(ctx context.Context, eventID, itemID, fixerUserID string) error
	Complete(ctx context.Context, itemID string, outcome model.Outcome, notes, method, parts string) error
	Revert(ctx context.Context, itemID string) error
	MarkInProgress(ctx context.Context, itemID string) error
	AddComment(ctx context.Context, c *model.ItemComment) error
	ListComments(ctx context.Context, itemID string) ([]model.ItemComment, error)
}

// SkillReader loads a user's structured skill tags.
type SkillReader interface {
	SkillsForUser(ctx context.Context, userID string) ([]model.Skill, error)
}

// ItemService runs the item/queue state machine:
// registered → in-progress → completed, with a revert path back to
// registered.
type ItemService struct {
	items    ItemStore
	skills   SkillReader
	events   EventGetter
	notifier Notifier
}

// NewItemService constructs an ItemService.
func NewItemService(items ItemStore, skills SkillReader, events EventGetter, notifier Notifier) *ItemService {
	return &ItemService{items: items, skills: skills, events: events, notifier: notifier}
}

// Claim assigns a queued item to the calling fixer. Only items in status
// registered can be claimed; a concurrent double-claim leaves the first
// assignment untouched and returns model.ErrInvalidState to the loser.
func (s *ItemService) Claim(ctx context.Context, eventID, itemID string, fixer *model.User) (*model.Item, error) {
	if err := requireFixer(fixer); err != nil {
		return nil, err
	}
	if err := s.items.Claim(ctx, eventID, itemID, fixer.ID); err != nil {
		return nil, err
	}

	item, err := s.items.GetEventItem(ctx, eventID, itemID)
	if err != nil {
		return nil, err
	}
	if event, err := s.events.GetByID(ctx, eventID); err == nil {
		s.notifier.ItemClaimed(ctx, item, event)
	}
	return item, nil
}

// OutcomeRequest is the payload for logging a repair outcome.
type OutcomeRequest struct {
	Outcome      string `json:"outcome"`
	OutcomeNotes string `json:"outcome_notes"`
	RepairMethod string `json:"repair_method"`
	PartsUsed    string `json:"parts_used"`
}

// LogOutcome closes an item with its repair classification. The outcome
// must be in the canonical set (legacy spellings are normalized); only the
// claiming fixer or an admin may log it.
func (s *ItemService) LogOutcome(ctx context.Context, eventID, itemID string, actor *model.User, req OutcomeRequest) (*model.Item, error) {
	if strings.TrimSpace(req.Outcome) == "" {
		return nil, fmt.Errorf("%w: outcome is required", model.ErrValidation)
	}
	outcome, ok := model.NormalizeOutcome(req.Outcome)
	if !ok {
		return nil, fmt.Errorf("%w: invalid outcome %q", model.ErrValidation, req.Outcome)
	}

	item, err := s.items.GetEventItem(ctx, eventID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeActor(item, actor); err != nil {
		return nil, err
	}
	if item.Status != model.ItemInProgress && item.Status != model.ItemRegistered {
		return nil, model.ErrInvalidState
	}

	if err := s.items.Complete(ctx, itemID, outcome, req.OutcomeNotes, req.RepairMethod, req.PartsUsed); err != nil {
		return nil, err
	}
	item, err = s.items.GetEventItem(ctx, eventID, itemID)
	if err != nil {
		return nil, err
	}
	if event, err := s.events.GetByID(ctx, eventID); err == nil {
		s.notifier.ItemCompleted(ctx, item, event)
	}
	return item, nil
}

// UpdateStatus is the general transition endpoint. Targets:
// registered reverts the item to the queue (clearing fixer, timestamps,
// and outcome fields); in-progress restamps the start time; completed
// requires an outcome and behaves like LogOutcome.
func (s *ItemService) UpdateStatus(ctx context.Context, eventID, itemID string, actor *model.User, target model.ItemStatus, req OutcomeRequest) (*model.Item, error) {
	item, err := s.items.GetEventItem(ctx, eventID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeActor(item, actor); err != nil {
		return nil, err
	}

	switch target {
	case model.ItemRegistered:
		if item.Status != model.ItemInProgress && item.Status != model.ItemCompleted {
			return nil, model.ErrInvalidState
		}
		if err := s.items.Revert(ctx, itemID); err != nil {
			return nil, err
		}
	case model.ItemInProgress:
		if item.Status != model.ItemInProgress && item.Status != model.ItemRegistered {
			return nil, model.ErrInvalidState
		}
		if err := s.items.MarkInProgress(ctx, itemID); err != nil {
			return nil, err
		}
	case model.ItemCompleted:
		return s.LogOutcome(ctx, eventID, itemID, actor, req)
	default:
		return nil, fmt.Errorf("%w: invalid status %q", model.ErrValidation, target)
	}

	return s.items.GetEventItem(ctx, eventID, itemID)
}

// Queue returns the event's items for the fixer view, with a skill-match
// flag that floats items matching the fixer's structured skills to the top.
// Matching is a substring check of skill names against item name and
// problem text.
func (s *ItemService) Queue(ctx context.Context, eventID string, fixer *model.User) ([]model.Item, []model.Skill, error) {
	if err := requireFixer(fixer); err != nil {
		return nil, nil, err
	}
	items, err := s.items.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	skills, err := s.skills.SkillsForUser(ctx, fixer.ID)
	if err != nil {
		return nil, nil, err
	}

	for i := range items {
		items[i].SkillMatch = matchesSkills(&items[i], skills)
	}
	// Stable partition: matched items first, original order otherwise.
	sorted := make([]model.Item, 0, len(items))
	for _, it := range items {
		if it.SkillMatch {
			sorted = append(sorted, it)
		}
	}
	for _, it := range items {
		if !it.SkillMatch {
			sorted = append(sorted, it)
		}
	}
	return sorted, skills, nil
}

// AddComment posts to an item's discussion thread. Any signed-in user may
// comment; the owner is notified unless they wrote the comment themselves.
func (s *ItemService) AddComment(ctx context.Context, itemID string, actor *model.User, text string) (*model.ItemComment, error) {
	if actor == nil {
		return nil, model.ErrUnauthorized
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment is required", model.ErrValidation)
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	comment := &model.ItemComment{
		ItemID:   itemID,
		UserID:   actor.ID,
		UserName: actor.Name,
		Comment:  text,
	}
	if err := s.items.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	if item.UserID != actor.ID {
		s.notifier.ItemCommented(ctx, item, actor.Name, text)
	}
	return comment, nil
}

// Comments returns an item's thread, oldest first.
func (s *ItemService) Comments(ctx context.Context, itemID string, actor *model.User) ([]model.ItemComment, error) {
	if actor == nil {
		return nil, model.ErrUnauthorized
	}
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.items.ListComments(ctx, itemID)
}

// authorizeActor allows the claiming fixer or an admin; an unclaimed item
// is open to any fixer.
func (s *ItemService) authorizeActor(item *model.Item, actor *model.User) error {
	if err := requireFixer(actor); err != nil {
		return err
	}
	if actor.Role == model.RoleAdmin {
		return nil
	}
	if item.FixerID != nil && *item.FixerID != actor.ID {
		return fmt.Errorf("%w: you can only update items you claimed", model.ErrForbidden)
	}
	return nil
}

func requireFixer(u *model.User) error {
	if u == nil {
		return model.ErrUnauthorized
	}
	if u.Role != model.RoleFixer && u.Role != model.RoleAdmin {
		return model.ErrForbidden
	}
	return nil
}

func matchesSkills(item *model.Item, skills []model.Skill) bool {
	name := strings.ToLower(item.Name)
	problem := strings.ToLower(item.Problem)
	for _, s := range skills {
		skill := strings.ToLower(s.Name)
		if skill == "" {
			continue
		}
		if strings.Contains(name, skill) || strings.Contains(problem, skill) {
			return true
		}
	}
	return false
}
