package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marut/grasp/internal/api"
	"github.com/marut/grasp/internal/graph"
	"github.com/marut/grasp/internal/store"
)

// Service manages saved graph snapshots: listing, loading into the mirror
// shape, saving the current mirror, and deleting. It remembers which record
// the current graph came from, so a later save updates that record instead
// of creating a new one, and it carries the server-assigned user id across
// runs via the settings store.
type Service struct {
	client   *api.Client
	settings store.SettingsRepo

	currentID string
}

// NewService creates a Service. The previously active record id, if any, is
// restored from settings.
func NewService(ctx context.Context, client *api.Client, settings store.SettingsRepo) *Service {
	s := &Service{client: client, settings: settings}
	if settings != nil {
		s.currentID, _ = settings.Get(ctx, store.KeyHistoryID)
	}
	return s
}

// CurrentID returns the record id the current graph was loaded from or last
// saved to, or "".
func (s *Service) CurrentID() string {
	return s.currentID
}

// List returns all saved snapshots, newest first.
func (s *Service) List(ctx context.Context) ([]api.HistoryItem, error) {
	return s.client.HistoryList(ctx)
}

// Load fetches one snapshot and normalizes its content. Both stored payload
// shapes (flat triples and explicit nodes/edges) are accepted; anything else
// surfaces as a data-shape error with nothing rendered.
func (s *Service) Load(ctx context.Context, id string) ([]graph.Node, []graph.Edge, error) {
	record, err := s.client.HistoryRecord(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	nodes, edges, err := graph.Normalize(record.Content)
	if err != nil {
		return nil, nil, err
	}

	s.setCurrent(ctx, id)
	return nodes, edges, nil
}

// Save stores the mirror as a snapshot. An empty title gets the default
// timestamped one. When the current graph came from a record, that record is
// updated in place.
func (s *Service) Save(ctx context.Context, state *graph.State, title, description string) (*api.SaveAck, error) {
	if title == "" {
		title = fmt.Sprintf("Knowledge graph %s", time.Now().Format("2006-01-02 15:04:05"))
	}
	if description == "" {
		description = "Saved knowledge graph"
	}

	content, err := json.Marshal(struct {
		Nodes []graph.Node `json:"nodes"`
		Edges []graph.Edge `json:"edges"`
	}{
		Nodes: state.Nodes(),
		Edges: state.Edges(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal graph: %w", err)
	}

	req := api.SaveRequest{
		Content:     content,
		Title:       title,
		Description: description,
		HistoryID:   s.currentID,
	}
	if s.settings != nil {
		req.UserID, _ = s.settings.Get(ctx, store.KeyUserID)
	}

	ack, err := s.client.HistorySave(ctx, req)
	if err != nil {
		return nil, err
	}

	s.setCurrent(ctx, ack.HistoryID)
	if ack.UserID != "" && s.settings != nil {
		_ = s.settings.Put(ctx, store.KeyUserID, ack.UserID)
	}
	return ack, nil
}

// Delete removes a snapshot. Deleting the active record detaches the current
// graph from history, so the next save creates a new record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.client.HistoryDelete(ctx, id); err != nil {
		return err
	}
	if id == s.currentID {
		s.setCurrent(ctx, "")
	}
	return nil
}

// Detach drops the association with the active record without deleting it;
// used when a fresh topology replaces a loaded snapshot.
func (s *Service) Detach(ctx context.Context) {
	s.setCurrent(ctx, "")
}

func (s *Service) setCurrent(ctx context.Context, id string) {
	s.currentID = id
	if s.settings != nil {
		_ = s.settings.Put(ctx, store.KeyHistoryID, id)
	}
}
