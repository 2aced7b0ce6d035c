package vision

import (
	"context"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/photomind/photomindbackend/media"
)

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.jpg")
	img := imaging.New(32, 24, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
	return path
}

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", auth)
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

// TestAnalyzeParsesFencedResponse verifies a markdown-fenced model reply
// is decoded and scored.
func TestAnalyzeParsesFencedResponse(t *testing.T) {
	content := "```json\n" + `{
		"description": "A warm-toned abstract frame.",
		"tags": ["abstract", "warm"],
		"subjects": "color field",
		"mood": "calm",
		"scores": {
			"composition": 3.5,
			"color": 4.0,
			"lighting": 3.0,
			"sharpness": 3.5,
			"reason": "pleasant palette",
			"suggestions": ["tip one", "tip two", "tip three"]
		},
		"creativity": 3.0
	}` + "\n```"
	server := chatServer(t, content)
	defer server.Close()

	client := NewClient(server.URL, "test-key", "glm-4v-flash")
	analysis, err := client.Analyze(context.Background(), writeTestImage(t), nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if analysis.Description != "A warm-toned abstract frame." {
		t.Fatalf("description = %q", analysis.Description)
	}
	// mood and subjects are folded into the tag list
	for _, want := range []string{"abstract", "warm", "calm", "color field"} {
		if !containsString(analysis.Tags, want) {
			t.Fatalf("tags %v missing %q", analysis.Tags, want)
		}
	}
	if analysis.Scores.Reason != "pleasant palette" {
		t.Fatalf("reason = %q", analysis.Scores.Reason)
	}
	// 3.5*0.25 + 4.0*0.2 + 3.0*0.25 + 3.5*0.2 + 3.0*0.1 = 3.425 -> 3.4
	if analysis.Scores.Overall != 3.4 {
		t.Fatalf("overall = %v, want 3.4", analysis.Scores.Overall)
	}
}

// TestAnalyzeRejectsMalformedResponse verifies unparseable content is an
// error rather than a zero-value analysis.
func TestAnalyzeRejectsMalformedResponse(t *testing.T) {
	server := chatServer(t, "Sorry, I cannot rate this image.")
	defer server.Close()

	client := NewClient(server.URL, "test-key", "glm-4v-flash")
	if _, err := client.Analyze(context.Background(), writeTestImage(t), nil); err == nil {
		t.Fatal("expected parse error")
	}
}

// TestSafeScoreClamping verifies coercion, clamping and rounding.
func TestSafeScoreClamping(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
	}{
		{9.4, 5.0},
		{0.2, 1.0},
		{3.14, 3.1},
		{"4.2", 4.2},
		{"n/a", 2.8},
		{nil, 2.8},
	}
	for _, c := range cases {
		if got := safeScore(c.in, scoreDefault); got != c.want {
			t.Fatalf("safeScore(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

// TestComputeOverallDefaultsCreativity verifies missing creativity falls
// back to the mean of the other four dimensions.
func TestComputeOverallDefaultsCreativity(t *testing.T) {
	// all four equal, so the creativity default equals them too
	if got := computeOverall(3.0, 3.0, 3.0, 3.0, nil); got != 3.0 {
		t.Fatalf("overall = %v, want 3.0", got)
	}
	if got := computeOverall(4.0, 4.0, 4.0, 4.0, 2.0); got != 3.8 {
		t.Fatalf("overall = %v, want 3.8", got)
	}
}

// TestNormalizeSuggestionsFromString verifies newline-separated bullet
// text is split and cleaned.
func TestNormalizeSuggestionsFromString(t *testing.T) {
	got := normalizeSuggestions("- raise the shutter\n• add a tripod\n\n- step closer")
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3: %v", len(got), got)
	}
	if got[0] != "raise the shutter" || got[1] != "add a tripod" {
		t.Fatalf("unexpected suggestions: %v", got)
	}
}

// TestFallbackSuggestionsUseCaptureSettings verifies the heuristics for
// high ISO and slow shutter speeds.
func TestFallbackSuggestionsUseCaptureSettings(t *testing.T) {
	iso := 3200
	shutter := "1/60"
	tips := fallbackSuggestions(4.0, 4.0, 4.0, 4.0, &iso, &shutter)
	if len(tips) != 2 {
		t.Fatalf("len = %d, want 2: %v", len(tips), tips)
	}

	// strong scores and clean settings still yield at least one tip
	fast := "1/500"
	lowISO := 100
	tips = fallbackSuggestions(4.5, 4.5, 4.5, 4.5, &lowISO, &fast)
	if len(tips) != 1 {
		t.Fatalf("len = %d, want 1: %v", len(tips), tips)
	}
}

// TestParseAnalysisFallsBackOnSparseSuggestions verifies fewer than
// three model suggestions trigger the heuristic fallback.
func TestParseAnalysisFallsBackOnSparseSuggestions(t *testing.T) {
	iso := 6400
	capture := &media.Metadata{ISO: &iso}
	analysis, err := parseAnalysis(`{
		"description": "noisy night shot",
		"scores": {"composition": 2.0, "color": 2.5, "lighting": 2.0, "sharpness": 2.0, "suggestions": ["only one"]}
	}`, capture)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(analysis.Scores.Suggestions) < 3 {
		t.Fatalf("expected fallback suggestions, got %v", analysis.Scores.Suggestions)
	}
}
