package segment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chaos-io/cutout/util"
	nhttp "github.com/chaos-io/cutout/util/http"
	"github.com/chaos-io/cutout/util/http/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func encodedMask(t *testing.T, w, h int, v uint8) string {
	t.Helper()
	data, err := util.EncodePNG(solidGray(w, h, v))
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(data)
}

func TestSAM2Client_Device(t *testing.T) {
	ctrl := gomock.NewController(t)
	cli := mocks.NewMockIClient(ctrl)

	cli.EXPECT().DoHTTPRequest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, p *nhttp.RequestParam) error {
			assert.Equal(t, "http://sam2:8000/api/device", p.RequestURI)
			assert.Equal(t, "GET", p.Method)
			resp := p.Response.(*deviceResp)
			resp.CUDAAvailable = true
			resp.Device = DeviceCUDA
			return nil
		})

	c := NewSAM2Client("http://sam2:8000", time.Second, cli)
	info, err := c.Device(context.Background())
	require.NoError(t, err)
	assert.True(t, info.CUDAAvailable)
	assert.Equal(t, DeviceCUDA, info.Device)
}

func TestSAM2Client_Load(t *testing.T) {
	tests := []struct {
		name    string
		respond func(p *nhttp.RequestParam) error
		wantErr string
	}{
		{
			name: "loaded",
			respond: func(p *nhttp.RequestParam) error {
				p.Response.(*loadResp).Loaded = true
				return nil
			},
		},
		{
			name: "sidecar reports error",
			respond: func(p *nhttp.RequestParam) error {
				p.Response.(*loadResp).Error = "CUDA out of memory"
				return nil
			},
			wantErr: "CUDA out of memory",
		},
		{
			name: "transport error",
			respond: func(p *nhttp.RequestParam) error {
				return errors.New("connection refused")
			},
			wantErr: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			cli := mocks.NewMockIClient(ctrl)
			cli.EXPECT().DoHTTPRequest(gomock.Any(), gomock.Any()).
				DoAndReturn(func(ctx context.Context, p *nhttp.RequestParam) error {
					body := p.Body.(*loadReq)
					assert.Equal(t, "small", body.Model)
					assert.Equal(t, DeviceCUDA, body.Device)
					return tt.respond(p)
				})

			c := NewSAM2Client("http://sam2:8000/", time.Second, cli)
			err := c.Load(context.Background(), &LoadRequest{Model: "small", Device: DeviceCUDA})
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSAM2Client_PredictRequestBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	cli := mocks.NewMockIClient(ctrl)
	mask := encodedMask(t, 4, 4, 255)

	cli.EXPECT().DoHTTPRequest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, p *nhttp.RequestParam) error {
			body := p.Body.(*predictReq)
			assert.Equal(t, "tiny", body.Model)
			assert.Equal(t, [][2]float64{{1, 2}, {3, 3}}, body.PointCoords)
			assert.Equal(t, []int{1, 0}, body.PointLabels)
			assert.Equal(t, []float64{0, 0, 4, 4}, body.Box)
			assert.False(t, body.MultimaskOutput)
			assert.NotEmpty(t, body.Image)

			resp := p.Response.(*predictResp)
			resp.Masks = []string{"data:image/png;base64," + mask}
			resp.Scores = []float64{0.77}
			return nil
		})

	prompt, err := ParsePrompt([][]float64{{1, 2, 1}, {3, 3, 0}}, []float64{0, 0, 4, 4})
	require.NoError(t, err)

	c := NewSAM2Client("http://sam2:8000", time.Second, cli)
	pred, err := c.Predict(context.Background(), &PredictRequest{Model: "tiny", Image: testImage(4, 4), Prompt: prompt})
	require.NoError(t, err)
	require.Len(t, pred.Masks, 1)
	assert.Equal(t, []float64{0.77}, pred.Scores)
	assert.Equal(t, image.Pt(4, 4), pred.Masks[0].Bounds().Size())
}

func TestSAM2Client_PredictMismatchedScores(t *testing.T) {
	ctrl := gomock.NewController(t)
	cli := mocks.NewMockIClient(ctrl)
	mask := encodedMask(t, 2, 2, 0)

	cli.EXPECT().DoHTTPRequest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, p *nhttp.RequestParam) error {
			resp := p.Response.(*predictResp)
			resp.Masks = []string{mask, mask}
			resp.Scores = []float64{0.1}
			return nil
		})

	c := NewSAM2Client("http://sam2:8000", time.Second, cli)
	_, err := c.Predict(context.Background(), &PredictRequest{Model: "tiny", Image: testImage(2, 2)})
	assert.ErrorContains(t, err, "2 masks but 1 scores")
}

// 用真实的 HTTP client 走一遍 sidecar 协议
func TestSAM2Client_AgainstSidecar(t *testing.T) {
	mask := encodedMask(t, 6, 6, 255)
	var loaded string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/device", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"cuda_available": false, "device": "cpu"})
	})
	mux.HandleFunc("/api/load", func(w http.ResponseWriter, r *http.Request) {
		var req loadReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		loaded = req.Model
		_ = json.NewEncoder(w).Encode(map[string]any{"loaded": true})
	})
	mux.HandleFunc("/api/unload", func(w http.ResponseWriter, r *http.Request) {
		loaded = ""
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/predict", func(w http.ResponseWriter, r *http.Request) {
		var req predictReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Model != loaded {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte("model not loaded"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"masks":  []string{mask, mask, mask},
			"scores": []float64{0.3, 0.6, 0.95},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	m := NewManager(NewSAM2Client(server.URL, time.Second, nhttp.NewHTTPClient()), Options{})
	assert.False(t, m.CUDAAvailable(context.Background()))

	prompt, err := ParsePrompt(nil, []float64{0, 0, 5, 5})
	require.NoError(t, err)

	res, err := m.Segment(context.Background(), "base_plus", testImage(6, 6), prompt)
	require.NoError(t, err)
	assert.Equal(t, 0.95, res.Score)
	assert.Equal(t, "base_plus", m.Current())
	assert.Equal(t, "base_plus", loaded)
}
