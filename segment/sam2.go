package segment

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chaos-io/cutout/util"
	nhttp "github.com/chaos-io/cutout/util/http"
	"go.uber.org/zap"
)

const (
	devicePath  = "api/device"
	loadPath    = "api/load"
	unloadPath  = "api/unload"
	predictPath = "api/predict"
)

// SAM2Client 通过 HTTP 调用 SAM2 推理 sidecar
type SAM2Client struct {
	baseURL string
	timeout time.Duration
	cli     nhttp.IClient
}

func NewSAM2Client(baseURL string, timeout time.Duration, cli nhttp.IClient) *SAM2Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &SAM2Client{
		baseURL: baseURL,
		timeout: timeout,
		cli:     cli,
	}
}

type deviceResp struct {
	CUDAAvailable bool   `json:"cuda_available"`
	Device        string `json:"device"`
}

/*
	curl "$BASE_URL/api/device"

{"cuda_available": true, "device": "cuda"}
*/
func (c *SAM2Client) Device(ctx context.Context) (*DeviceInfo, error) {
	resp := &deviceResp{}
	reqParam := &nhttp.RequestParam{
		RequestURI: c.baseURL + devicePath,
		Method:     "GET",
		Response:   resp,
		Timeout:    c.timeout,
	}
	if err := c.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("query device: %w", err)
	}
	return &DeviceInfo{CUDAAvailable: resp.CUDAAvailable, Device: resp.Device}, nil
}

type loadReq struct {
	Model      string `json:"model"`
	Checkpoint string `json:"checkpoint"`
	Config     string `json:"config"`
	Device     string `json:"device"`
}

type loadResp struct {
	Loaded bool   `json:"loaded"`
	Error  string `json:"error,omitempty"`
}

/*
	curl -X POST "$BASE_URL/api/load" \
	  -H "Content-Type: application/json" \
	  -d '{"model": "small", "checkpoint": "...", "config": "...", "device": "cuda"}'

{"loaded": true}
*/
func (c *SAM2Client) Load(ctx context.Context, req *LoadRequest) error {
	resp := &loadResp{}
	reqParam := &nhttp.RequestParam{
		RequestURI: c.baseURL + loadPath,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": "application/json"},
		Body: &loadReq{
			Model:      req.Model,
			Checkpoint: req.Checkpoint,
			Config:     req.Config,
			Device:     req.Device,
		},
		Response: resp,
	}
	if err := c.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return fmt.Errorf("load model %s on %s: %w", req.Model, req.Device, err)
	}
	if !resp.Loaded {
		if resp.Error != "" {
			return fmt.Errorf("load model %s on %s: %s", req.Model, req.Device, resp.Error)
		}
		return fmt.Errorf("load model %s on %s: not loaded", req.Model, req.Device)
	}
	return nil
}

// Unload 释放模型，sidecar 会顺带清空 CUDA cache
func (c *SAM2Client) Unload(ctx context.Context) error {
	reqParam := &nhttp.RequestParam{
		RequestURI: c.baseURL + unloadPath,
		Method:     "POST",
		Timeout:    c.timeout,
	}
	if err := c.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return fmt.Errorf("unload model: %w", err)
	}
	return nil
}

type predictReq struct {
	Model           string       `json:"model"`
	Image           string       `json:"image"`
	PointCoords     [][2]float64 `json:"point_coords,omitempty"`
	PointLabels     []int        `json:"point_labels,omitempty"`
	Box             []float64    `json:"box,omitempty"`
	MultimaskOutput bool         `json:"multimask_output"`
}

type predictResp struct {
	Masks  []string  `json:"masks"`
	Scores []float64 `json:"scores"`
	Error  string    `json:"error,omitempty"`
}

/*
	curl -X POST "$BASE_URL/api/predict" \
	  -H "Content-Type: application/json" \
	  -d '{"model": "small", "image": "<base64 png>", "box": [10, 10, 200, 200], "multimask_output": true}'

{"masks": ["<base64 png>", ...], "scores": [0.93, ...]}
*/
func (c *SAM2Client) Predict(ctx context.Context, req *PredictRequest) (*Prediction, error) {
	imgBytes, err := util.EncodePNG(req.Image)
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	body := &predictReq{
		Model:           req.Model,
		Image:           base64.StdEncoding.EncodeToString(imgBytes),
		MultimaskOutput: req.Multimask,
	}
	for _, p := range req.Prompt.Points {
		body.PointCoords = append(body.PointCoords, [2]float64{p.X, p.Y})
		body.PointLabels = append(body.PointLabels, int(p.Label))
	}
	if b := req.Prompt.Box; b != nil {
		body.Box = []float64{b.X1, b.Y1, b.X2, b.Y2}
	}

	resp := &predictResp{}
	reqParam := &nhttp.RequestParam{
		RequestURI: c.baseURL + predictPath,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": "application/json"},
		Body:       body,
		Response:   resp,
	}
	if err := c.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("predict: %s", resp.Error)
	}
	if len(resp.Masks) == 0 {
		return nil, errors.New("predict: model returned no masks")
	}
	if len(resp.Masks) != len(resp.Scores) {
		return nil, fmt.Errorf("predict: got %d masks but %d scores", len(resp.Masks), len(resp.Scores))
	}

	logger := util.Logger.With(zap.String("model", req.Model))
	logger.Debug("got prediction", zap.Int("masks", len(resp.Masks)), zap.Float64s("scores", resp.Scores))

	out := &Prediction{Scores: resp.Scores}
	for i, m := range resp.Masks {
		data, err := base64.StdEncoding.DecodeString(stripDataURL(m))
		if err != nil {
			return nil, fmt.Errorf("decode mask %d: %w", i, err)
		}
		img, err := util.DecodeImage(data)
		if err != nil {
			return nil, fmt.Errorf("decode mask %d: %w", i, err)
		}
		out.Masks = append(out.Masks, img)
	}
	return out, nil
}

func stripDataURL(s string) string {
	if i := strings.Index(s, ","); i >= 0 && strings.HasPrefix(s, "data:") {
		return s[i+1:]
	}
	return s
}
