package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"noteshare-server/internal/domain"
	"noteshare-server/internal/repository"

	"github.com/google/uuid"
)

// noteLocks hands out one mutex per note ID so concurrent appends to the same
// note serialize instead of losing each other's writes. Locks are never
// reclaimed; the map grows with the number of distinct notes touched by this
// process, which is acceptable for the request volumes this service sees.
type noteLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *noteLocks) get(noteID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	if m, ok := l.locks[noteID]; ok {
		return m
	}
	m := &sync.Mutex{}
	l.locks[noteID] = m
	return m
}

type NoteService struct {
	repo        repository.NoteRepository
	versionRepo repository.NoteVersionRepository
	userRepo    repository.UserRepository
	locks       noteLocks
}

func NewNoteService(
	repo repository.NoteRepository,
	versionRepo repository.NoteVersionRepository,
	userRepo repository.UserRepository,
) *NoteService {
	return &NoteService{
		repo:        repo,
		versionRepo: versionRepo,
		userRepo:    userRepo,
		locks:       noteLocks{locks: make(map[string]*sync.Mutex)},
	}
}

func (s *NoteService) Create(userID string, req *domain.CreateNoteRequest) (*domain.NoteResponse, error) {
	now := time.Now()

	note := &domain.Note{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       req.Title,
		Content:     req.Content,
		SharedUsers: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(note); err != nil {
		return nil, err
	}

	return note.ToResponse(), nil
}

func (s *NoteService) List(userID string) ([]*domain.NoteResponse, error) {
	notes, err := s.repo.ListByOwner(userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*domain.NoteResponse, 0, len(notes))
	for _, n := range notes {
		responses = append(responses, n.ToResponse())
	}

	return responses, nil
}

// GetByID is owner-only. A missing note and a note owned by someone else both
// come back as ErrNoteNotFound so the read path never reveals existence.
func (s *NoteService) GetByID(userID, noteID string) (*domain.NoteResponse, error) {
	note, err := s.repo.FindByID(noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	if note.UserID != userID {
		return nil, ErrNoteNotFound
	}

	return note.ToResponse(), nil
}

// Share grants write access to the given users. Only the owner may share, and
// the operation is idempotent: users already in the shared set stay listed
// exactly once. Sharing does not touch the note's updated_at, which tracks
// content mutations only.
func (s *NoteService) Share(userID string, req *domain.ShareNoteRequest) error {
	lock := s.locks.get(req.NoteID)
	lock.Lock()
	defer lock.Unlock()

	note, err := s.repo.FindByID(req.NoteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoteNotFound
		}
		return err
	}

	if note.UserID != userID {
		return ErrNoteNotFound
	}

	for _, id := range req.Users {
		if id == note.UserID || note.SharedWith(id) {
			continue
		}
		note.SharedUsers = append(note.SharedUsers, id)
	}

	if err := s.repo.Update(note); err != nil {
		return fmt.Errorf("failed to share note: %w", err)
	}

	return nil
}

// Append adds a content fragment to the note and records exactly one version
// entry for it. The owner and every shared user may append. The note write
// and the version write belong together: if the version write fails, the
// previous content is restored and the whole operation fails.
func (s *NoteService) Append(userID, noteID, fragment string) error {
	lock := s.locks.get(noteID)
	lock.Lock()
	defer lock.Unlock()

	note, err := s.repo.FindByID(noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoteNotFound
		}
		return err
	}

	if note.UserID != userID && !note.SharedWith(userID) {
		return ErrForbidden
	}

	prevContent := note.Content
	prevUpdatedAt := note.UpdatedAt
	now := time.Now()

	note.Content += fragment
	note.UpdatedAt = now

	if err := s.repo.Update(note); err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	version := &domain.NoteVersion{
		ID:        uuid.New().String(),
		NoteID:    note.ID,
		UserID:    userID,
		Content:   fragment,
		CreatedAt: now,
	}

	if err := s.versionRepo.SaveVersion(version); err != nil {
		note.Content = prevContent
		note.UpdatedAt = prevUpdatedAt
		if rollbackErr := s.repo.Update(note); rollbackErr != nil {
			return fmt.Errorf("failed to record version (rollback also failed: %v): %w", rollbackErr, err)
		}
		return fmt.Errorf("failed to record version: %w", err)
	}

	return nil
}

// VersionHistory returns the note's version records oldest first, with the
// editor's username attached. Same owner-only authorization as GetByID.
func (s *NoteService) VersionHistory(userID, noteID string) ([]*domain.VersionEntry, error) {
	note, err := s.repo.FindByID(noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	if note.UserID != userID {
		return nil, ErrNoteNotFound
	}

	versions, err := s.versionRepo.ListByNote(noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load version history: %w", err)
	}

	editorIDs := make([]string, 0, len(versions))
	seen := make(map[string]bool)
	for _, v := range versions {
		if !seen[v.UserID] {
			seen[v.UserID] = true
			editorIDs = append(editorIDs, v.UserID)
		}
	}

	editors, err := s.userRepo.FindByIDs(editorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve editors: %w", err)
	}

	entries := make([]*domain.VersionEntry, 0, len(versions))
	for _, v := range versions {
		username := v.UserID
		if u, ok := editors[v.UserID]; ok {
			username = u.Username
		}
		entries = append(entries, &domain.VersionEntry{
			Timestamp: v.CreatedAt,
			User:      username,
			Content:   v.Content,
		})
	}

	return entries, nil
}
