package vision

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	scoreMin     = 1.0
	scoreMax     = 5.0
	scoreDefault = 2.8
)

// safeScore coerces an arbitrary JSON value to a score, falling back to
// def when the value is missing or not numeric, and clamping the result.
func safeScore(value interface{}, def float64) float64 {
	var score float64
	switch v := value.(type) {
	case float64:
		score = v
	case int:
		score = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			score = def
		} else {
			score = parsed
		}
	default:
		score = def
	}
	return round1(math.Min(math.Max(score, scoreMin), scoreMax))
}

// computeOverall weighs the four technical dimensions plus an optional
// creativity score. Creativity defaults to the mean of the other four.
func computeOverall(composition, color, lighting, sharpness float64, creativity interface{}) float64 {
	cr := safeScore(creativity, (composition+color+lighting+sharpness)/4.0)
	overall := composition*0.25 + color*0.2 + lighting*0.25 + sharpness*0.2 + cr*0.1
	return round1(math.Min(math.Max(overall, scoreMin), scoreMax))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// normalizeSuggestions accepts either a JSON list or a newline-separated
// string and returns at most five cleaned suggestion lines.
func normalizeSuggestions(value interface{}) []string {
	switch v := value.(type) {
	case []interface{}:
		var out []string
		for _, item := range v {
			s := strings.TrimSpace(fmt.Sprint(item))
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 5 {
			out = out[:5]
		}
		return out
	case string:
		var out []string
		for _, line := range strings.Split(v, "\n") {
			s := strings.Trim(line, "-• \t")
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 5 {
			out = out[:5]
		}
		return out
	default:
		return nil
	}
}

// fallbackSuggestions builds actionable improvement tips from the score
// profile and capture settings when the model returned too few.
func fallbackSuggestions(composition, color, lighting, sharpness float64, iso *int, shutter *string) []string {
	var tips []string
	if composition < 3.6 {
		tips = append(tips, "Decide on a single subject and simplify the background; use the rule of thirds or leading lines to organize the frame.")
	}
	if color < 3.6 {
		tips = append(tips, "Shoot during golden hour and keep white balance consistent to avoid muddled colors from mixed light sources.")
	}
	if lighting < 3.6 {
		tips = append(tips, "Prefer side or diffused light, and use exposure compensation to protect highlight and shadow detail.")
	}
	if sharpness < 3.6 {
		tips = append(tips, "Raise the shutter speed or stabilize the camera; follow the reciprocal-of-focal-length rule to avoid shake.")
	}

	if iso != nil && *iso >= 1600 {
		tips = append(tips, "ISO is high; add light or use a tripod so ISO can stay in a lower range with less noise.")
	}
	if shutter != nil {
		if denom, ok := parseShutterDenominator(*shutter); ok && denom < 100 {
			tips = append(tips, "The shutter is slow; use at least 1/250s to freeze moving subjects.")
		}
	}

	if len(tips) == 0 {
		tips = append(tips, "Try varying camera height and shooting distance to strengthen subject separation and narrative depth.")
	}
	if len(tips) > 5 {
		tips = tips[:5]
	}
	return tips
}

// parseShutterDenominator extracts N from strings like "1/60" or "1/60s".
func parseShutterDenominator(shutter string) (int, bool) {
	idx := strings.Index(shutter, "1/")
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimSuffix(shutter[idx+2:], "s")
	denom, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || denom <= 0 {
		return 0, false
	}
	return denom, true
}
