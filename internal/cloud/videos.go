package cloud

import (
	"context"
	"net/http"
	"net/url"
)

type VideoService interface {
	Upload(ctx context.Context, token string, f UploadFile, progress ProgressFunc) (*VideoResponse, error)
	Process(ctx context.Context, token string, req ProcessRequest) (*ProcessResponse, error)
	JobStatus(ctx context.Context, token, jobID string) (*JobStatus, error)
	List(ctx context.Context, token string) ([]VideoResponse, error)
	Get(ctx context.Context, token, videoID string) (*VideoResponse, error)
	GenerateShorts(ctx context.Context, token, videoID string, vc *ContextPayload) error
}

type HTTPVideoService struct {
	client *HTTPClient
}

func (s *HTTPVideoService) Process(ctx context.Context, token string, req ProcessRequest) (*ProcessResponse, error) {
	var resp ProcessResponse
	if err := s.client.doJSON(ctx, http.MethodPost, "/videos/process", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *HTTPVideoService) JobStatus(ctx context.Context, token, jobID string) (*JobStatus, error) {
	var status JobStatus
	path := "/videos/status/" + url.PathEscape(jobID)
	if err := s.client.doJSON(ctx, http.MethodGet, path, token, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *HTTPVideoService) List(ctx context.Context, token string) ([]VideoResponse, error) {
	var videos []VideoResponse
	if err := s.client.doJSON(ctx, http.MethodGet, "/videos", token, nil, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

func (s *HTTPVideoService) Get(ctx context.Context, token, videoID string) (*VideoResponse, error) {
	var video VideoResponse
	if err := s.client.doJSON(ctx, http.MethodGet, "/videos/"+url.PathEscape(videoID), token, nil, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// GenerateShorts asks the backend to queue server-side short generation for an
// uploaded video.
func (s *HTTPVideoService) GenerateShorts(ctx context.Context, token, videoID string, vc *ContextPayload) error {
	path := "/videos/" + url.PathEscape(videoID) + "/generate-shorts"
	return s.client.doJSON(ctx, http.MethodPost, path, token, GenerateShortsRequest{Context: vc}, nil)
}
