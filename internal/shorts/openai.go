package shorts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/timecode"
)

// Annotator fills in titles, explanations and hashtags for generated shorts.
type Annotator interface {
	Annotate(ctx context.Context, video library.Video, shorts []library.Short) ([]library.Short, error)
}

const annotatePrompt = `You are an assistant that writes metadata for short vertical video clips cut from a longer video.
For every clip you receive, return a catchy title of at most 60 characters, one sentence explaining why the moment is engaging, and 3 to 5 hashtags.
Respond with a JSON array only, one object per clip: {"id": "...", "title": "...", "explanation": "...", "hashtags": ["#..."]}.
`

type OpenAIAnnotator struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAIAnnotator(client *openai.Client, model string, logger *slog.Logger) *OpenAIAnnotator {
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAIAnnotator{client: client, model: model, logger: logger}
}

type annotation struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Explanation string   `json:"explanation"`
	Hashtags    []string `json:"hashtags"`
}

func (a *OpenAIAnnotator) Annotate(ctx context.Context, video library.Video, shorts []library.Short) ([]library.Short, error) {
	if len(shorts) == 0 {
		return shorts, nil
	}

	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: annotatePrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: describe(video, shorts),
				},
			},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to annotate shorts: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("failed to annotate shorts: empty response")
	}

	var notes []annotation
	content := stripFence(resp.Choices[len(resp.Choices)-1].Message.Content)
	if err := json.Unmarshal([]byte(content), &notes); err != nil {
		return nil, fmt.Errorf("failed to parse annotations: %w", err)
	}

	byID := make(map[string]annotation, len(notes))
	for _, n := range notes {
		byID[n.ID] = n
	}
	out := make([]library.Short, len(shorts))
	for i, s := range shorts {
		if n, ok := byID[s.ID]; ok {
			if t := strings.TrimSpace(n.Title); t != "" {
				s.Title = t
			}
			s.Explanation = strings.TrimSpace(n.Explanation)
			s.Hashtags = n.Hashtags
		}
		out[i] = s
	}
	a.logger.Debug("shorts annotated", "video_id", video.ID, "annotated", len(byID))
	return out, nil
}

func describe(video library.Video, shorts []library.Short) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Video: %s\n", video.Name)
	if vc := video.Context; vc != nil {
		fmt.Fprintf(&b, "Content type: %s\n", vc.ContentType)
		if vc.TargetAudience != "" {
			fmt.Fprintf(&b, "Target audience: %s\n", vc.TargetAudience)
		}
		if len(vc.Keywords) > 0 {
			fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(vc.Keywords, ", "))
		}
		if vc.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", vc.Description)
		}
	}
	b.WriteString("\nClips:\n")
	for _, s := range shorts {
		fmt.Fprintf(&b, "- id=%s start=%s length=%s transcript=%q\n",
			s.ID, timecode.Format(s.TrimStart), timecode.Format(s.Length()), s.Transcript)
	}
	return b.String()
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
