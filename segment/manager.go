package segment

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/chaos-io/cutout/imgproc"
	"github.com/chaos-io/cutout/util"
	"go.uber.org/zap"
)

// 模型输出的 mask 二值化阈值
const maskThreshold = 127

type Options struct {
	// CheckpointRoot 非空时加载前检查 checkpoint 文件是否存在
	CheckpointRoot string
	// MaxInputSide 送入模型前最长边的上限，0 表示不缩放
	MaxInputSide int
	// MaxConcurrent 排队加正在推理的请求上限，推理本身串行执行
	MaxConcurrent int
	// QueueTimeout 等待排队名额和模型锁的总时长
	QueueTimeout time.Duration
}

type Result struct {
	Mask  *image.Gray
	Score float64
	Model string
}

// Manager 持有当前加载的模型。切换模型和推理在同一把锁下完成，
// 一个请求的推理过程中模型不会被另一个请求换掉。
// semaphore 限制排队的请求数，lock 是容量为 1 的 channel，等待时可以超时。
type Manager struct {
	backend Backend
	opts    Options

	lock      chan struct{}
	current   atomic.Value // string
	semaphore chan struct{}
}

func NewManager(backend Backend, opts Options) *Manager {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.QueueTimeout <= 0 {
		opts.QueueTimeout = 30 * time.Second
	}
	m := &Manager{
		backend:   backend,
		opts:      opts,
		lock:      make(chan struct{}, 1),
		semaphore: make(chan struct{}, opts.MaxConcurrent),
	}
	m.current.Store("")
	return m
}

// Current 当前加载的模型 key，未加载时为空
func (m *Manager) Current() string {
	return m.current.Load().(string)
}

// CUDAAvailable 查询失败一律视为不可用
func (m *Manager) CUDAAvailable(ctx context.Context) bool {
	info, err := m.backend.Device(ctx)
	if err != nil {
		util.Logger.Warn("failed to query inference device", zap.Error(err))
		return false
	}
	return info.CUDAAvailable
}

// Load 加载指定模型，已加载同一个模型时直接返回
func (m *Manager) Load(ctx context.Context, key string) (ModelSpec, error) {
	select {
	case m.lock <- struct{}{}:
	case <-ctx.Done():
		return ModelSpec{}, ctx.Err()
	}
	defer func() { <-m.lock }()
	return m.loadLocked(ctx, key)
}

func (m *Manager) loadLocked(ctx context.Context, key string) (ModelSpec, error) {
	spec := Lookup(key)
	if !Known(key) {
		util.Logger.Warn("unknown model size, using default",
			zap.String("requested", key), zap.String("model", spec.Key))
	}

	current := m.Current()
	if current == spec.Key {
		return spec, nil
	}

	// 换模型前先释放旧的
	if current != "" {
		if err := m.backend.Unload(ctx); err != nil {
			util.Logger.Warn("failed to unload model", zap.String("model", current), zap.Error(err))
		}
		m.current.Store("")
	}

	checkpoint := spec.Checkpoint
	if m.opts.CheckpointRoot != "" {
		checkpoint = filepath.Join(m.opts.CheckpointRoot, spec.Checkpoint)
		if _, err := os.Stat(checkpoint); err != nil {
			util.Logger.Error("checkpoint does not exist", zap.String("checkpoint", checkpoint), zap.Error(err))
			return ModelSpec{}, fmt.Errorf("%w: checkpoint %s does not exist", ErrModelUnavailable, checkpoint)
		}
	}

	device := DeviceCPU
	if m.CUDAAvailable(ctx) {
		device = DeviceCUDA
	}

	util.Logger.Info("loading model",
		zap.String("model", spec.Key),
		zap.String("checkpoint", checkpoint),
		zap.String("config", spec.Config),
		zap.String("device", device))

	req := &LoadRequest{Model: spec.Key, Checkpoint: checkpoint, Config: spec.Config, Device: device}
	err := m.backend.Load(ctx, req)
	if err != nil && device == DeviceCUDA {
		// 显存不够时退回 CPU
		util.Logger.Warn("failed to load model on cuda, falling back to cpu",
			zap.String("model", spec.Key), zap.Error(err))
		req.Device = DeviceCPU
		err = m.backend.Load(ctx, req)
	}
	if err != nil {
		util.Logger.Error("failed to load model", zap.String("model", spec.Key), zap.Error(err))
		return ModelSpec{}, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	m.current.Store(spec.Key)
	util.Logger.Info("model loaded", zap.String("model", spec.Key), zap.String("device", req.Device))
	return spec, nil
}

// Segment 按提示点/框对图片做分割，返回与原图同尺寸的二值 mask
func (m *Manager) Segment(ctx context.Context, key string, img image.Image, prompt Prompt) (*Result, error) {
	release, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	spec, err := m.loadLocked(ctx, key)
	if err != nil {
		return nil, err
	}

	defer util.Trace("segment " + spec.Key)()

	input, scale := imgproc.ResizeWithinMax(img, m.opts.MaxInputSide)
	multimask := prompt.Multimask()
	pred, err := m.backend.Predict(ctx, &PredictRequest{
		Model:     spec.Key,
		Image:     input,
		Prompt:    prompt.Scale(scale),
		Multimask: multimask,
	})
	if err != nil {
		return nil, err
	}
	if len(pred.Masks) == 0 || len(pred.Masks) != len(pred.Scores) {
		return nil, errors.New("prediction has no usable mask")
	}

	idx := 0
	if multimask && len(pred.Masks) > 1 {
		idx = bestIndex(pred.Scores)
		util.Logger.Info("selected mask",
			zap.Int("index", idx),
			zap.Int("candidates", len(pred.Masks)),
			zap.Float64("score", pred.Scores[idx]))
	}

	mask := imgproc.ToGray(pred.Masks[idx])
	mask = imgproc.FitMask(mask, img.Bounds().Size())
	mask = imgproc.BinaryMask(mask, maskThreshold)

	return &Result{Mask: mask, Score: pred.Scores[idx], Model: spec.Key}, nil
}

// acquire 先占排队名额再拿模型锁，两步共用 QueueTimeout
func (m *Manager) acquire(ctx context.Context) (func(), error) {
	wait, cancel := context.WithTimeout(ctx, m.opts.QueueTimeout)
	defer cancel()

	select {
	case m.semaphore <- struct{}{}:
	case <-wait.Done():
		return nil, waitErr(ctx)
	}

	select {
	case m.lock <- struct{}{}:
		return func() {
			<-m.lock
			<-m.semaphore
		}, nil
	case <-wait.Done():
		<-m.semaphore
		return nil, waitErr(ctx)
	}
}

// waitErr 调用方自己取消时返回 ctx 的错误，否则是排队超时
func waitErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrQueueFull
}

func bestIndex(scores []float64) int {
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best
}
