package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"time"

	"scene-validator/internal/models"
	"scene-validator/shared/config"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	visionapi "google.golang.org/api/vision/v1"
)

// maxAnnotations bounds how many objects and labels one frame reports.
const maxAnnotations = 50

// Extractor analyzes frame images with the Cloud Vision API, requesting
// object localization, label detection and dominant color properties.
type Extractor struct {
	service *visionapi.Service
	timeout time.Duration
	logger  *slog.Logger
}

// NewExtractor builds a Cloud Vision client. It authenticates with the
// configured API key when present, otherwise with Application Default
// Credentials.
func NewExtractor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Extractor, error) {
	var opts []option.ClientOption
	if cfg.Vision.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.Vision.APIKey))
	} else {
		creds, err := google.FindDefaultCredentials(ctx, visionapi.CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("failed to locate Google credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	if cfg.Vision.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(cfg.Vision.ProjectID))
	}
	if cfg.Vision.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Vision.Endpoint))
	}

	service, err := visionapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vision service: %w", err)
	}

	return &Extractor{
		service: service,
		timeout: cfg.VisionTimeout(),
		logger:  logger,
	}, nil
}

// ExtractFeatures analyzes a single frame. Any failure - unreadable file,
// transport error, per-image API error - is returned as an error marker so
// the caller can keep processing the rest of the sequence.
func (e *Extractor) ExtractFeatures(ctx context.Context, framePath string) models.FeatureResult {
	data, err := os.ReadFile(framePath)
	if err != nil {
		return models.FeatureResult{Err: fmt.Sprintf("failed to read frame %s: %v", framePath, err)}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := &visionapi.BatchAnnotateImagesRequest{
		Requests: []*visionapi.AnnotateImageRequest{{
			Image: &visionapi.Image{Content: base64.StdEncoding.EncodeToString(data)},
			Features: []*visionapi.Feature{
				{Type: "OBJECT_LOCALIZATION", MaxResults: maxAnnotations},
				{Type: "LABEL_DETECTION", MaxResults: maxAnnotations},
				{Type: "IMAGE_PROPERTIES"},
			},
		}},
	}

	resp, err := e.service.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		e.logger.Error("frame annotation failed", "frame", framePath, "error", err)
		return models.FeatureResult{Err: fmt.Sprintf("failed to annotate frame %s: %v", framePath, err)}
	}
	if len(resp.Responses) == 0 {
		return models.FeatureResult{Err: fmt.Sprintf("empty annotate response for frame %s", framePath)}
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		e.logger.Error("frame annotation rejected", "frame", framePath, "error", annotation.Error.Message)
		return models.FeatureResult{Err: fmt.Sprintf("vision API error for frame %s: %s", framePath, annotation.Error.Message)}
	}

	frameFeatures := mapAnnotations(annotation)
	e.logger.Debug("frame analyzed",
		"frame", framePath,
		"objects", len(frameFeatures.Objects),
		"labels", len(frameFeatures.Labels),
		"colors", len(frameFeatures.Colors))

	return models.FeatureResult{Features: frameFeatures}
}

func mapAnnotations(annotation *visionapi.AnnotateImageResponse) *models.FrameFeatures {
	frameFeatures := &models.FrameFeatures{
		Objects: []models.Object{},
		Labels:  []models.Label{},
		Colors:  []models.Color{},
	}

	for _, obj := range annotation.LocalizedObjectAnnotations {
		box := []models.Point{}
		if obj.BoundingPoly != nil {
			for _, vertex := range obj.BoundingPoly.NormalizedVertices {
				box = append(box, models.Point{X: vertex.X, Y: vertex.Y})
			}
		}
		frameFeatures.Objects = append(frameFeatures.Objects, models.Object{
			Name:        obj.Name,
			Confidence:  obj.Score,
			BoundingBox: box,
		})
	}

	for _, label := range annotation.LabelAnnotations {
		frameFeatures.Labels = append(frameFeatures.Labels, models.Label{
			Description: label.Description,
			Confidence:  label.Score,
		})
	}

	if annotation.ImagePropertiesAnnotation != nil && annotation.ImagePropertiesAnnotation.DominantColors != nil {
		// The API returns dominant colors sorted by prominence; that order
		// is preserved for the comparator's top-color selection.
		for _, info := range annotation.ImagePropertiesAnnotation.DominantColors.Colors {
			var rgb [3]int
			if info.Color != nil {
				rgb = [3]int{int(info.Color.Red), int(info.Color.Green), int(info.Color.Blue)}
			}
			frameFeatures.Colors = append(frameFeatures.Colors, models.Color{
				RGB:           rgb,
				Score:         info.Score,
				PixelFraction: info.PixelFraction,
			})
		}
	}

	return frameFeatures
}

// Unavailable is a stand-in extractor used when the Vision client could not
// be initialized. Every frame yields the same error marker, mirroring the
// errors-as-data contract instead of aborting the run.
type Unavailable struct {
	Reason string
}

func (u Unavailable) ExtractFeatures(ctx context.Context, framePath string) models.FeatureResult {
	return models.FeatureResult{Err: u.Reason}
}
