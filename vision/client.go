package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/photomind/photomindbackend/media"
)

const analysisPrompt = `You are a professional photography judge and retouching director. Score the photo strictly against its content and capture parameters, and output ONLY JSON (no markdown code fences).

Capture parameters (may be incomplete):
<<CAMERA_CONTEXT>>

Requirements:
1. description: 2-3 sentences covering subject, scene, light and atmosphere.
2. tags: 5-8 tags ordered by relevance.
3. subjects: short summary of the main subject.
4. mood: the emotional tone of the image.
5. scores: 1.0-5.0 with one decimal, including composition/color/lighting/sharpness/reason/suggestions.
6. creativity: 1.0-5.0, optional, used for the overall score.
7. Scores must be differentiated; do not give uniformly high marks. Ordinary snapshots usually land in 2.8-3.8; only clearly strong work reaches 4.2+.
8. Use the capture parameters when judging technical quality (high ISO implies noise, slow shutter implies motion blur, aperture and focal length affect depth of field).
9. suggestions must contain 3-5 concrete, actionable tips, preferably referencing shutter/ISO/aperture/focal length/position/light.

Return this JSON structure:
{
  "description": "<string>",
  "tags": ["<tag1>", "<tag2>"],
  "subjects": "<string>",
  "mood": "<string>",
  "scores": {
    "composition": <1.0-5.0>,
    "color": <1.0-5.0>,
    "lighting": <1.0-5.0>,
    "sharpness": <1.0-5.0>,
    "reason": "<string>",
    "suggestions": ["<tip1>", "<tip2>", "<tip3>"]
  },
  "creativity": <1.0-5.0>
}`

// Client calls a GLM-4V compatible multimodal chat/completions endpoint
// to produce descriptions, tags and quality scores for photos.
type Client struct {
	http  *resty.Client
	model string
}

// NewClient creates a vision API client. An empty apiKey yields a client
// whose Analyze always fails, which the import pipeline treats as a
// per-photo failure.
func NewClient(baseURL, apiKey, model string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(60 * time.Second)
	return &Client{http: http, model: model}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends the photo to the vision model and parses the structured
// result. capture may be nil when no EXIF data is available.
func (c *Client) Analyze(ctx context.Context, imagePath string, capture *media.Metadata) (*Analysis, error) {
	payload, err := media.EncodeForAnalysis(imagePath)
	if err != nil {
		return nil, fmt.Errorf("vision: failed to prepare image payload: %w", err)
	}
	imageData := base64.StdEncoding.EncodeToString(payload)

	prompt := strings.Replace(analysisPrompt, "<<CAMERA_CONTEXT>>", buildCameraContext(capture), 1)

	body := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type":      "image_url",
						"image_url": map[string]string{"url": "data:image/jpeg;base64," + imageData},
					},
					{"type": "text", "text": prompt},
				},
			},
		},
		"max_tokens": 800,
	}

	var result chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("vision: API request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("vision: API error %d: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("vision: API returned no choices")
	}

	analysis, err := parseAnalysis(result.Choices[0].Message.Content, capture)
	if err != nil {
		return nil, fmt.Errorf("vision: failed to parse model response: %w", err)
	}
	return analysis, nil
}

// buildCameraContext renders the capture parameters into prompt text.
func buildCameraContext(capture *media.Metadata) string {
	if capture == nil {
		return "No capture parameters available."
	}
	var parts []string
	if cam := capture.Camera(); cam != nil {
		parts = append(parts, "camera: "+*cam)
	}
	if lens := capture.Lens(); lens != nil {
		parts = append(parts, "lens: "+*lens)
	}
	if capture.ISO != nil {
		parts = append(parts, fmt.Sprintf("ISO: %d", *capture.ISO))
	}
	if capture.Aperture != nil {
		parts = append(parts, fmt.Sprintf("aperture: f/%.1f", *capture.Aperture))
	}
	if capture.ShutterSpeed != nil {
		parts = append(parts, "shutter: "+*capture.ShutterSpeed)
	}
	if capture.FocalLength != nil {
		parts = append(parts, fmt.Sprintf("focal length: %.0fmm", *capture.FocalLength))
	}
	if capture.Width != nil && capture.Height != nil {
		parts = append(parts, fmt.Sprintf("dimensions: %dx%d", *capture.Width, *capture.Height))
	}
	if len(parts) == 0 {
		return "No capture parameters available."
	}
	return strings.Join(parts, "; ")
}

// parseAnalysis leniently decodes the model's JSON answer. Models often
// wrap the payload in markdown fences or return slightly off-shape
// values, so every field is coerced individually.
func parseAnalysis(content string, capture *media.Metadata) (*Analysis, error) {
	jsonStr := stripCodeFences(content)

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		log.Printf("vision: unparseable model response: %.200s", content)
		return nil, err
	}

	analysis := &Analysis{
		Description: asString(raw["description"]),
		Tags:        asStringSlice(raw["tags"]),
		Mood:        asString(raw["mood"]),
		Subjects:    asString(raw["subjects"]),
	}

	// mood and subjects double as searchable tags
	if analysis.Mood != "" && !containsString(analysis.Tags, analysis.Mood) {
		analysis.Tags = append(analysis.Tags, analysis.Mood)
	}
	if analysis.Subjects != "" && !containsString(analysis.Tags, analysis.Subjects) {
		analysis.Tags = append(analysis.Tags, analysis.Subjects)
	}

	scoresData, _ := raw["scores"].(map[string]interface{})
	composition := safeScore(scoresData["composition"], scoreDefault)
	color := safeScore(scoresData["color"], scoreDefault)
	lighting := safeScore(scoresData["lighting"], scoreDefault)
	sharpness := safeScore(scoresData["sharpness"], scoreDefault)

	suggestions := normalizeSuggestions(scoresData["suggestions"])
	if len(suggestions) < 3 {
		var iso *int
		var shutter *string
		if capture != nil {
			iso = capture.ISO
			shutter = capture.ShutterSpeed
		}
		suggestions = fallbackSuggestions(composition, color, lighting, sharpness, iso, shutter)
	}

	analysis.Scores = Scores{
		Composition: composition,
		Color:       color,
		Lighting:    lighting,
		Sharpness:   sharpness,
		Overall:     computeOverall(composition, color, lighting, sharpness, raw["creativity"]),
		Reason:      asString(scoresData["reason"]),
		Suggestions: suggestions,
	}

	return analysis, nil
}

// stripCodeFences removes a surrounding ```json ... ``` block if present.
func stripCodeFences(content string) string {
	if idx := strings.Index(content, "```json"); idx >= 0 {
		rest := content[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(content)
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func asStringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
