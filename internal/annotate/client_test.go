package annotate

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/google/go-cmp/cmp"
	gax "github.com/googleapis/gax-go/v2"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"google.golang.org/api/option"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
	colorpb "google.golang.org/genproto/googleapis/type/color"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/ironsheep/image-describe/internal/imaging"
)

type mockImageAnnotatorServer struct {
	visionpb.UnimplementedImageAnnotatorServer

	mu   sync.Mutex
	reqs []*visionpb.BatchAnnotateImagesRequest

	// If set, all calls return this error.
	err error

	// Number of leading calls that fail with Unavailable.
	unavailable int

	// Responses by requested feature; missing features get an empty response.
	resps map[visionpb.Feature_Type]*visionpb.AnnotateImageResponse
}

func (s *mockImageAnnotatorServer) BatchAnnotateImages(_ context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	if s.unavailable > 0 {
		s.unavailable--
		return nil, status.Error(codes.Unavailable, "try again")
	}

	feature := req.GetRequests()[0].GetFeatures()[0].GetType()
	resp, ok := s.resps[feature]
	if !ok {
		resp = &visionpb.AnnotateImageResponse{}
	}
	return &visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{resp},
	}, nil
}

func (s *mockImageAnnotatorServer) requests() []*visionpb.BatchAnnotateImagesRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*visionpb.BatchAnnotateImagesRequest(nil), s.reqs...)
}

// startMockServer serves mock over a local listener and returns a Client
// connected to it.
func startMockServer(t *testing.T, mock *mockImageAnnotatorServer) *Client {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	return startMockServerWithLogger(t, mock, logger)
}

func startMockServerWithLogger(t *testing.T, mock *mockImageAnnotatorServer, logger logrus.FieldLogger) *Client {
	t.Helper()

	serv := grpc.NewServer()
	visionpb.RegisterImageAnnotatorServer(serv, mock)

	lis, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	go serv.Serve(lis)
	t.Cleanup(serv.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}

	client, err := New(context.Background(), "",
		WithClientOptions(option.WithGRPCConn(conn), option.WithoutAuthentication()),
		WithBackoff(gax.Backoff{Initial: time.Millisecond, Max: time.Millisecond}),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func colorInfo(r, g, b, score float32) *visionpb.ColorInfo {
	return &visionpb.ColorInfo{
		Color: &colorpb.Color{Red: r, Green: g, Blue: b},
		Score: score,
	}
}

func TestDominantColor(t *testing.T) {
	mock := &mockImageAnnotatorServer{
		resps: map[visionpb.Feature_Type]*visionpb.AnnotateImageResponse{
			visionpb.Feature_IMAGE_PROPERTIES: {
				ImagePropertiesAnnotation: &visionpb.ImageProperties{
					DominantColors: &visionpb.DominantColorsAnnotation{
						Colors: []*visionpb.ColorInfo{
							colorInfo(254.9, 180.2, 49.7, 0.4),
							colorInfo(0, 0, 255, 0.3),
						},
					},
				},
			},
		},
	}
	client := startMockServer(t, mock)

	got, ok, err := client.DominantColor(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("DominantColor failed: %v", err)
	}
	if !ok {
		t.Fatal("DominantColor reported no color")
	}
	want := imaging.RGBColor{R: 254, G: 180, B: 49}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DominantColor mismatch (-want +got):\n%s", diff)
	}

	reqs := mock.requests()
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}
	if content := string(reqs[0].GetRequests()[0].GetImage().GetContent()); content != "img" {
		t.Errorf("image content: got %q, want %q", content, "img")
	}
}

func TestDominantColor_None(t *testing.T) {
	client := startMockServer(t, &mockImageAnnotatorServer{})

	_, ok, err := client.DominantColor(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("DominantColor failed: %v", err)
	}
	if ok {
		t.Error("DominantColor should report no color for an empty response")
	}
}

func TestBestLabel(t *testing.T) {
	mock := &mockImageAnnotatorServer{
		resps: map[visionpb.Feature_Type]*visionpb.AnnotateImageResponse{
			visionpb.Feature_LABEL_DETECTION: {
				LabelAnnotations: []*visionpb.EntityAnnotation{
					{Description: "Font", Topicality: 0.7},
					{Description: "Cat", Topicality: 0.95},
					{Description: "Whiskers", Topicality: 0.95},
					{Description: "Pet", Topicality: 0.5},
				},
			},
		},
	}
	client := startMockServer(t, mock)

	got, ok, err := client.BestLabel(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("BestLabel failed: %v", err)
	}
	if !ok || got != "Cat" {
		t.Errorf("BestLabel: got (%q, %v), want (\"Cat\", true)", got, ok)
	}

	feature := mock.requests()[0].GetRequests()[0].GetFeatures()[0]
	if feature.GetMaxResults() != DefaultMaxLabels {
		t.Errorf("MaxResults: got %d, want %d", feature.GetMaxResults(), DefaultMaxLabels)
	}
}

func TestBestLabel_None(t *testing.T) {
	client := startMockServer(t, &mockImageAnnotatorServer{})

	_, ok, err := client.BestLabel(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("BestLabel failed: %v", err)
	}
	if ok {
		t.Error("BestLabel should report no label for an empty response")
	}
}

func TestFirstTextLine(t *testing.T) {
	mock := &mockImageAnnotatorServer{
		resps: map[visionpb.Feature_Type]*visionpb.AnnotateImageResponse{
			visionpb.Feature_TEXT_DETECTION: {
				TextAnnotations: []*visionpb.EntityAnnotation{
					{Description: "  \nSTOP\nALL WAY\n"},
					{Description: "STOP"},
				},
			},
		},
	}
	client := startMockServer(t, mock)

	got, ok, err := client.FirstTextLine(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("FirstTextLine failed: %v", err)
	}
	if !ok || got != "STOP" {
		t.Errorf("FirstTextLine: got (%q, %v), want (\"STOP\", true)", got, ok)
	}
}

func TestErrors_StatusCodePreserved(t *testing.T) {
	mock := &mockImageAnnotatorServer{err: status.Error(codes.PermissionDenied, "denied")}
	client := startMockServer(t, mock)

	_, _, err := client.DominantColor(context.Background(), []byte("img"))
	if err == nil {
		t.Fatal("DominantColor should fail")
	}
	if got := status.Code(err); got != codes.PermissionDenied {
		t.Errorf("status code: got %v, want PermissionDenied", got)
	}
}

// A per-image error inside a successful response means "nothing found" for
// that feature, not a failed call.
func TestResponseErrorTreatedAsNotFound(t *testing.T) {
	imageErr := &statuspb.Status{Code: int32(codes.InvalidArgument), Message: "bad image data"}
	mock := &mockImageAnnotatorServer{
		resps: map[visionpb.Feature_Type]*visionpb.AnnotateImageResponse{
			visionpb.Feature_IMAGE_PROPERTIES: {Error: imageErr},
			visionpb.Feature_LABEL_DETECTION:  {Error: imageErr},
			visionpb.Feature_TEXT_DETECTION:   {Error: imageErr},
		},
	}
	logger, hook := logtest.NewNullLogger()
	client := startMockServerWithLogger(t, mock, logger)
	ctx := context.Background()

	if _, ok, err := client.DominantColor(ctx, []byte("img")); err != nil || ok {
		t.Errorf("DominantColor: got (ok=%v, err=%v), want (false, nil)", ok, err)
	}
	if _, ok, err := client.BestLabel(ctx, []byte("img")); err != nil || ok {
		t.Errorf("BestLabel: got (ok=%v, err=%v), want (false, nil)", ok, err)
	}
	if _, ok, err := client.FirstTextLine(ctx, []byte("img")); err != nil || ok {
		t.Errorf("FirstTextLine: got (ok=%v, err=%v), want (false, nil)", ok, err)
	}

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
			if e.Data["code"] != codes.InvalidArgument.String() {
				t.Errorf("warning code field: got %v", e.Data["code"])
			}
		}
	}
	if warnings != 3 {
		t.Errorf("got %d warnings, want 3", warnings)
	}
}

func TestRetryOnUnavailable(t *testing.T) {
	mock := &mockImageAnnotatorServer{unavailable: 2}
	client := startMockServer(t, mock)

	if _, _, err := client.FirstTextLine(context.Background(), []byte("img")); err != nil {
		t.Fatalf("FirstTextLine should succeed after retries: %v", err)
	}
	if n := len(mock.requests()); n != 3 {
		t.Errorf("got %d requests, want 3", n)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.json")
	_, err := New(context.Background(), path)
	if err == nil {
		t.Fatal("New should fail for a missing credentials file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist: %v", err)
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello", "hello"},
		{"hello\nworld", "hello"},
		{"\n\n  hello world  \nsecond", "hello world  "},
		{"   ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := firstLine(tt.in); got != tt.want {
			t.Errorf("firstLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBestByTopicality(t *testing.T) {
	if got := bestByTopicality(nil); got != nil {
		t.Errorf("bestByTopicality(nil) = %v, want nil", got)
	}

	labels := []*visionpb.EntityAnnotation{
		{Description: "a", Topicality: 0.2},
		{Description: "b", Topicality: 0.9},
		{Description: "c", Topicality: 0.9},
	}
	if got := bestByTopicality(labels).GetDescription(); got != "b" {
		t.Errorf("bestByTopicality = %s, want b", got)
	}
}
