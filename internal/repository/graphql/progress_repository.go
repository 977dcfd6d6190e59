package graphql

import (
	"context"
	"fmt"

	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/PizzaHomicide/haven/internal/log"
)

const progressFields = `
	id
	videoId
	percentComplete
	saveForLater
	rating
`

// progressEntry is the wire shape of a progress record
type progressEntry struct {
	ID              int  `json:"id"`
	VideoID         int  `json:"videoId"`
	PercentComplete int  `json:"percentComplete"`
	SaveForLater    bool `json:"saveForLater"`
	Rating          *int `json:"rating"`
}

func (e progressEntry) toDomain() *domain.ProgressRecord {
	id := e.ID
	record := &domain.ProgressRecord{
		ID:              &id,
		VideoID:         e.VideoID,
		PercentComplete: e.PercentComplete,
		SaveForLater:    e.SaveForLater,
	}
	if e.Rating != nil {
		rating := *e.Rating
		record.Rating = &rating
	}
	return record
}

// ProgressRepository stores viewing progress in the library API
type ProgressRepository struct {
	client *Client
}

func NewProgressRepository(client *Client) domain.ProgressRepository {
	return &ProgressRepository{
		client: client,
	}
}

func (r *ProgressRepository) FetchProgress(ctx context.Context) ([]*domain.ProgressRecord, error) {
	query := `
		query {
			viewerProgress {` + progressFields + `}
		}
	`

	var response struct {
		ViewerProgress []progressEntry `json:"viewerProgress"`
	}

	if err := r.client.Query(ctx, query, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch progress: %w", err)
	}

	records := make([]*domain.ProgressRecord, 0, len(response.ViewerProgress))
	for _, entry := range response.ViewerProgress {
		records = append(records, entry.toDomain())
	}

	log.Info("Fetched progress records", "count", len(records))
	return records, nil
}

func (r *ProgressRepository) UpdateProgress(ctx context.Context, recordID *int, videoID int, percent int) (*domain.ProgressRecord, error) {
	return r.save(ctx, recordID, videoID, map[string]any{"percentComplete": percent})
}

func (r *ProgressRepository) RateVideo(ctx context.Context, recordID *int, videoID int, rating int) (*domain.ProgressRecord, error) {
	return r.save(ctx, recordID, videoID, map[string]any{"rating": rating})
}

func (r *ProgressRepository) SetSaveForLater(ctx context.Context, recordID *int, videoID int, save bool) (*domain.ProgressRecord, error) {
	return r.save(ctx, recordID, videoID, map[string]any{"saveForLater": save})
}

// save upserts a single field of a progress record.  A nil recordID creates the record.
func (r *ProgressRepository) save(ctx context.Context, recordID *int, videoID int, input map[string]any) (*domain.ProgressRecord, error) {
	mutation := `
		mutation ($id: Int, $videoId: Int!, $input: ProgressInput!) {
			saveProgress(id: $id, videoId: $videoId, input: $input) {` + progressFields + `}
		}
	`

	variables := map[string]any{
		"id":      recordID,
		"videoId": videoID,
		"input":   input,
	}

	log.Debug("Saving progress", "videoId", videoID, "create", recordID == nil, "input", input)

	var response struct {
		SaveProgress progressEntry `json:"saveProgress"`
	}

	if err := r.client.Query(ctx, mutation, variables, &response); err != nil {
		log.Error("Failed to save progress", "error", err, "videoId", videoID)
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	record := response.SaveProgress.toDomain()
	log.Info("Successfully saved progress",
		"videoId", record.VideoID,
		"recordId", *record.ID,
		"percent", record.PercentComplete)

	return record, nil
}
