package cloud

import (
	"context"
	"net/http"
	"net/url"
)

type ShortService interface {
	GenerateTimestamps(ctx context.Context, token, videoID string, count int) (*GenerateTimestampsResponse, error)
	Save(ctx context.Context, token string, req SaveShortRequest) (*ShortResponse, error)
	List(ctx context.Context, token, videoID string) ([]ShortResponse, error)
}

type HTTPShortService struct {
	client *HTTPClient
}

func (s *HTTPShortService) GenerateTimestamps(ctx context.Context, token, videoID string, count int) (*GenerateTimestampsResponse, error) {
	var resp GenerateTimestampsResponse
	body := GenerateTimestampsRequest{VideoID: videoID, Count: count}
	if err := s.client.doJSON(ctx, http.MethodPost, "/shorts/generate-timestamps", token, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *HTTPShortService) Save(ctx context.Context, token string, req SaveShortRequest) (*ShortResponse, error) {
	var resp ShortResponse
	if err := s.client.doJSON(ctx, http.MethodPost, "/shorts/save-short", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *HTTPShortService) List(ctx context.Context, token, videoID string) ([]ShortResponse, error) {
	var shorts []ShortResponse
	if err := s.client.doJSON(ctx, http.MethodGet, "/shorts/list/"+url.PathEscape(videoID), token, nil, &shorts); err != nil {
		return nil, err
	}
	return shorts, nil
}
