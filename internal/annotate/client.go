package annotate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/ironsheep/image-describe/internal/imaging"
)

// DefaultMaxLabels is the number of label candidates requested from the
// service before picking the one with the highest topicality.
const DefaultMaxLabels = 10

// imageAnnotator is the subset of vision.ImageAnnotatorClient used here.
type imageAnnotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// Client performs single-feature annotation requests against Cloud Vision.
type Client struct {
	api       imageAnnotator
	callOpts  []gax.CallOption
	maxLabels int
	log       logrus.FieldLogger
}

type settings struct {
	clientOpts []option.ClientOption
	backoff    gax.Backoff
	maxLabels  int
	log        logrus.FieldLogger
}

// Option configures a Client.
type Option func(*settings)

// WithClientOptions appends options passed to the vision client, e.g. an
// endpoint or a pre-dialed connection.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(s *settings) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// WithBackoff sets the retry backoff for transient failures.
func WithBackoff(b gax.Backoff) Option {
	return func(s *settings) {
		s.backoff = b
	}
}

// WithMaxLabels sets how many label candidates are requested.
func WithMaxLabels(n int) Option {
	return func(s *settings) {
		s.maxLabels = n
	}
}

// WithLogger sets the logger used for per-request debug output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *settings) {
		s.log = l
	}
}

// New creates a Client authenticated with the service-account JSON file at
// credentialsPath. An empty credentialsPath uses Application Default
// Credentials.
//
// # Errors
//
//   - Returns error if credentialsPath is set but the file cannot be read
//   - Returns error if the vision client cannot be created
func New(ctx context.Context, credentialsPath string, opts ...Option) (*Client, error) {
	s := settings{
		backoff: gax.Backoff{
			Initial:    200 * time.Millisecond,
			Max:        5 * time.Second,
			Multiplier: 2,
		},
		maxLabels: DefaultMaxLabels,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	clientOpts := make([]option.ClientOption, 0, len(s.clientOpts)+1)
	if credentialsPath != "" {
		if _, err := os.Stat(credentialsPath); err != nil {
			return nil, fmt.Errorf("failed to read credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsPath))
	}
	clientOpts = append(clientOpts, s.clientOpts...)

	api, err := vision.NewImageAnnotatorClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	return newClient(api, s), nil
}

func newClient(api imageAnnotator, s settings) *Client {
	backoff := s.backoff
	return &Client{
		api: api,
		callOpts: []gax.CallOption{
			gax.WithRetry(func() gax.Retryer {
				return gax.OnCodes([]codes.Code{
					codes.Unavailable,
					codes.DeadlineExceeded,
				}, backoff)
			}),
		},
		maxLabels: s.maxLabels,
		log:       s.log,
	}
}

// Close releases the underlying vision connection.
func (c *Client) Close() error {
	return c.api.Close()
}

// DominantColor returns the first dominant color reported for the image.
// The service orders colors by score, so the first one is the most
// dominant. Float channels are truncated toward zero.
//
// The boolean is false when the service reports no colors.
func (c *Client) DominantColor(ctx context.Context, content []byte) (imaging.RGBColor, bool, error) {
	res, err := c.annotateOne(ctx, content, visionpb.Feature_IMAGE_PROPERTIES, 0)
	if err != nil {
		return imaging.RGBColor{}, false, fmt.Errorf("image properties detection failed: %w", err)
	}

	colors := res.GetImagePropertiesAnnotation().GetDominantColors().GetColors()
	if len(colors) == 0 {
		c.log.Debug("no dominant colors returned")
		return imaging.RGBColor{}, false, nil
	}

	top := colors[0].GetColor()
	rgb := imaging.RGBColor{
		R: int(top.GetRed()),
		G: int(top.GetGreen()),
		B: int(top.GetBlue()),
	}
	c.log.WithFields(logrus.Fields{
		"rgb":   rgb.String(),
		"score": colors[0].GetScore(),
	}).Debug("dominant color")
	return rgb, true, nil
}

// BestLabel returns the description of the label with the highest
// topicality. When several labels share the highest topicality the first
// one returned by the service wins.
//
// The boolean is false when the service reports no labels.
func (c *Client) BestLabel(ctx context.Context, content []byte) (string, bool, error) {
	res, err := c.annotateOne(ctx, content, visionpb.Feature_LABEL_DETECTION, c.maxLabels)
	if err != nil {
		return "", false, fmt.Errorf("label detection failed: %w", err)
	}
	labels := res.GetLabelAnnotations()

	best := bestByTopicality(labels)
	if best == nil {
		c.log.Debug("no labels returned")
		return "", false, nil
	}
	c.log.WithFields(logrus.Fields{
		"label":      best.GetDescription(),
		"topicality": best.GetTopicality(),
		"candidates": len(labels),
	}).Debug("best label")
	return best.GetDescription(), true, nil
}

// FirstTextLine returns the first line of the detected text. The first text
// annotation holds the full text of the image; it is trimmed of surrounding
// whitespace and cut at the first newline.
//
// The boolean is false when the service reports no text.
func (c *Client) FirstTextLine(ctx context.Context, content []byte) (string, bool, error) {
	res, err := c.annotateOne(ctx, content, visionpb.Feature_TEXT_DETECTION, 0)
	if err != nil {
		return "", false, fmt.Errorf("text detection failed: %w", err)
	}
	texts := res.GetTextAnnotations()
	if len(texts) == 0 {
		c.log.Debug("no text returned")
		return "", false, nil
	}

	line := firstLine(texts[0].GetDescription())
	c.log.WithField("text", line).Debug("first text line")
	return line, true, nil
}

// annotateOne requests a single feature for one image. Only transport and
// RPC failures are returned as errors. A per-image error reported inside
// the response (e.g. an undecodable image) is logged and the response is
// returned as-is, so the caller finds no annotations for that feature.
func (c *Client) annotateOne(ctx context.Context, content []byte, feature visionpb.Feature_Type, maxResults int) (*visionpb.AnnotateImageResponse, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{Content: content},
			Features: []*visionpb.Feature{{
				Type:       feature,
				MaxResults: int32(maxResults),
			}},
		}},
	}

	batch, err := c.api.BatchAnnotateImages(ctx, req, c.callOpts...)
	if err != nil {
		return nil, err
	}

	responses := batch.GetResponses()
	if len(responses) == 0 {
		return &visionpb.AnnotateImageResponse{}, nil
	}
	res := responses[0]
	if e := res.GetError(); e != nil {
		c.log.WithFields(logrus.Fields{
			"feature": feature.String(),
			"code":    codes.Code(e.GetCode()).String(),
		}).Warnf("service reported an error for the image: %s", e.GetMessage())
	}
	return res, nil
}

func bestByTopicality(labels []*visionpb.EntityAnnotation) *visionpb.EntityAnnotation {
	var best *visionpb.EntityAnnotation
	for _, l := range labels {
		if best == nil || l.GetTopicality() > best.GetTopicality() {
			best = l
		}
	}
	return best
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
