// Package describe assembles a one-line description of an image from three
// sequential annotation calls.
package describe

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-describe/internal/imaging"
)

// Placeholders used when the service returns nothing for a feature.
const (
	NoColor = "No dominant color detected"
	NoLabel = "No label detected"
	NoText  = "No text detected"
)

// Annotator retrieves single annotations for raw image content. The
// boolean result is false when the service found nothing.
type Annotator interface {
	DominantColor(ctx context.Context, content []byte) (imaging.RGBColor, bool, error)
	BestLabel(ctx context.Context, content []byte) (string, bool, error)
	FirstTextLine(ctx context.Context, content []byte) (string, bool, error)
}

// Description is the combined analysis of one image.
type Description struct {
	// Text is the first line of detected text, or NoText.
	Text string `json:"text"`

	// Color is the basic color name of the dominant color, or NoColor.
	Color string `json:"color"`

	// Label is the most topical label, or NoLabel.
	Label string `json:"label"`

	// Dominant is the dominant color itself; nil when none was detected.
	Dominant *imaging.RGBColor `json:"dominant,omitempty"`

	// Hex is Dominant in "#RRGGBB" form; empty when none was detected.
	Hex string `json:"hex,omitempty"`
}

// String renders the description as "<text> - <color> - <label>".
func (d *Description) String() string {
	return fmt.Sprintf("%s - %s - %s", d.Text, d.Color, d.Label)
}

// Describe reads the image at path and describes it. See DescribeSource.
func Describe(ctx context.Context, a Annotator, path string, log logrus.FieldLogger) (*Description, error) {
	src, err := imaging.ReadSource(path)
	if err != nil {
		return nil, NewError(KindIO, "read image", err)
	}
	return DescribeSource(ctx, a, src, log)
}

// DescribeSource runs the color, label and text annotations in that order
// and combines them. Missing annotations are replaced by placeholders.
//
// The first failing call aborts the sequence; the returned error is an
// *Error of KindAuth when the service rejected the credentials and
// KindService otherwise.
func DescribeSource(ctx context.Context, a Annotator, src *imaging.Source, log logrus.FieldLogger) (*Description, error) {
	log = log.WithFields(logrus.Fields{
		"image":  src.Path,
		"format": src.Format,
		"bytes":  src.SizeBytes,
	})
	log.Debug("describing image")

	d := &Description{Color: NoColor, Label: NoLabel, Text: NoText}

	rgb, ok, err := a.DominantColor(ctx, src.Content)
	if err != nil {
		return nil, serviceError("dominant color", err)
	}
	if ok {
		d.Dominant = &rgb
		d.Color = rgb.Name().String()
		d.Hex = rgb.Hex()
	}

	label, ok, err := a.BestLabel(ctx, src.Content)
	if err != nil {
		return nil, serviceError("label", err)
	}
	if ok {
		d.Label = label
	}

	text, ok, err := a.FirstTextLine(ctx, src.Content)
	if err != nil {
		return nil, serviceError("text", err)
	}
	if ok {
		d.Text = text
	}

	log.WithFields(logrus.Fields{
		"color": d.Color,
		"label": d.Label,
	}).Debug("described image")
	return d, nil
}
