package segment

import (
	"context"
	"errors"
	"image"
)

const (
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
)

var (
	ErrModelUnavailable = errors.New("segmentation model is not available")
	ErrQueueFull        = errors.New("segmentation queue is full, try again later")
)

type DeviceInfo struct {
	CUDAAvailable bool
	Device        string
}

type LoadRequest struct {
	Model      string
	Checkpoint string
	Config     string
	Device     string
}

type PredictRequest struct {
	Model     string
	Image     image.Image
	Prompt    Prompt
	Multimask bool
}

// Prediction masks 与 scores 一一对应
type Prediction struct {
	Masks  []image.Image
	Scores []float64
}

// Backend 真正持有模型权重的推理进程
type Backend interface {
	Device(ctx context.Context) (*DeviceInfo, error)
	Load(ctx context.Context, req *LoadRequest) error
	Unload(ctx context.Context) error
	Predict(ctx context.Context, req *PredictRequest) (*Prediction, error)
}
