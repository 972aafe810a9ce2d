package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scene-validator/internal/models"
	"scene-validator/shared/config"

	"google.golang.org/genai"
)

// compositionPrompt is the fixed instruction sent with every frame.
const compositionPrompt = `Analyze this frame from a video and provide feedback on:
1. Scene composition quality (rule of thirds, balance, framing)
2. Lighting assessment
3. Depth and perspective
4. Potential continuity issues if this were part of a sequence
5. Overall visual quality rating (1-10 scale)

Respond with a single JSON object using these keys: "composition_quality",
"lighting", "depth_perspective", "continuity_risk", "composition_issues"
(a list of short issue labels) and "overall_rating" (a number from 1 to 10).`

// Critic asks Gemini for a qualitative composition judgment of a frame.
type Critic struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

func NewCritic(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Critic, error) {
	if cfg.AI.GeminiAPIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.AI.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Critic{
		client:  client,
		model:   cfg.AI.Model,
		timeout: cfg.AITimeout(),
		logger:  logger,
	}, nil
}

// JudgeComposition critiques a single frame. Failures come back as an
// error-marker judgment so a bad frame never aborts the sequence.
func (c *Critic) JudgeComposition(ctx context.Context, framePath string) models.CompositionJudgment {
	data, err := os.ReadFile(framePath)
	if err != nil {
		return models.ErrorJudgment(fmt.Sprintf("failed to read frame %s: %v", framePath, err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	parts := []*genai.Part{
		genai.NewPartFromText(compositionPrompt),
		genai.NewPartFromBytes(data, mimeTypeFor(framePath)),
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		c.logger.Error("composition analysis failed", "frame", framePath, "error", err)
		return models.ErrorJudgment(fmt.Sprintf("failed to analyze frame %s: %v", framePath, err))
	}

	responseText := result.Text()
	if responseText == "" {
		c.logger.Warn("empty response from model", "frame", framePath)
		return models.ErrorJudgment(fmt.Sprintf("empty analysis response for frame %s", framePath))
	}

	judgment := ParseJudgment(responseText)
	if _, raw := judgment["raw_analysis"]; raw {
		c.logger.Warn("model did not return valid JSON, keeping raw response", "frame", framePath)
	}
	return judgment
}

// ParseJudgment extracts the JSON object embedded in a model response.
// Responses without well-formed JSON are preserved under "raw_analysis"
// rather than discarded.
func ParseJudgment(response string) models.CompositionJudgment {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return models.RawJudgment(response)
	}

	jsonStr := response[startIdx : endIdx+1]

	var judgment models.CompositionJudgment
	if err := json.Unmarshal([]byte(jsonStr), &judgment); err != nil {
		// Try to sanitize and parse again
		if err := json.Unmarshal([]byte(sanitizeJSON(jsonStr)), &judgment); err != nil {
			return models.RawJudgment(response)
		}
	}
	return judgment
}

func mimeTypeFor(framePath string) string {
	switch strings.ToLower(filepath.Ext(framePath)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// sanitizeJSON fixes the common formatting issue in model responses:
// unescaped quotes inside string values.
func sanitizeJSON(jsonStr string) string {
	lines := strings.Split(jsonStr, "\n")
	var sanitizedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Look for lines that contain string values (have : followed by ")
		if strings.Contains(line, ":") && strings.Contains(line, "\"") {
			colonIdx := strings.Index(line, ":")
			if colonIdx != -1 {
				beforeColon := line[:colonIdx+1]
				afterColon := strings.TrimSpace(line[colonIdx+1:])

				if strings.HasPrefix(afterColon, "\"") {
					lastQuoteIdx := strings.LastIndex(afterColon, "\"")
					if lastQuoteIdx > 0 {
						stringContent := afterColon[1:lastQuoteIdx]
						stringContent = strings.ReplaceAll(stringContent, "\"", "\\\"")
						remainder := afterColon[lastQuoteIdx+1:]
						line = beforeColon + " \"" + stringContent + "\"" + remainder
					}
				}
			}
		}

		sanitizedLines = append(sanitizedLines, line)
	}

	return strings.Join(sanitizedLines, "\n")
}

// Unavailable is a stand-in critic used when the Gemini client could not be
// initialized. Every frame yields the same error-marker judgment.
type Unavailable struct {
	Reason string
}

func (u Unavailable) JudgeComposition(ctx context.Context, framePath string) models.CompositionJudgment {
	return models.ErrorJudgment(u.Reason)
}
