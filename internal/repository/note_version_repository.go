package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"noteshare-server/internal/domain"
)

type NoteVersionRepository interface {
	SaveVersion(version *domain.NoteVersion) error
	ListByNote(noteID string) ([]*domain.NoteVersion, error)
}

// noteVersionRepo talks to CouchDB over its plain HTTP API rather than through
// the kivik client: version records are write-once documents and the _find
// endpoint covers everything the history read needs.
type noteVersionRepo struct {
	baseURL string
	client  *http.Client
}

func NewNoteVersionRepository(baseURL string) NoteVersionRepository {
	return &noteVersionRepo{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *noteVersionRepo) SaveVersion(version *domain.NoteVersion) error {
	doc := struct {
		DocID string `json:"_id"`
		*domain.NoteVersion
	}{
		DocID:       fmt.Sprintf("version:%s:%s", version.NoteID, version.ID),
		NoteVersion: version,
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	resp, err := r.client.Post(r.baseURL, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to save version: status %d", resp.StatusCode)
	}

	return nil
}

// ListByNote returns every version record for a note, oldest first. An empty
// slice means the note was never updated, which is a valid history.
//
// Ordering happens here rather than in the query: a sorted _find needs a JSON
// index covering the sort field, and the database is bootstrapped bare.
func (r *noteVersionRepo) ListByNote(noteID string) ([]*domain.NoteVersion, error) {
	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"note_id": noteID,
		},
	}

	data, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Post(r.baseURL+"/_find", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list versions: status %d", resp.StatusCode)
	}

	var result struct {
		Docs []*domain.NoteVersion `json:"docs"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	sort.SliceStable(result.Docs, func(i, j int) bool {
		return result.Docs[i].CreatedAt.Before(result.Docs[j].CreatedAt)
	})

	return result.Docs, nil
}
