package model

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ModelInfo 可选模型
type ModelInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	VRAMGB  int    `json:"vram_gb"`
	Speed   string `json:"speed"`
	Quality string `json:"quality"`
}

type ModelsResponse struct {
	Success       bool        `json:"success"`
	Models        []ModelInfo `json:"models"`
	CUDAAvailable bool        `json:"cuda_available"`
	CurrentModel  *string     `json:"current_model"` // 未加载时为 null
}

// UploadResponse 上传响应
type UploadResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	ImageURL  string `json:"image_url"`
}

// SegmentRequest points 为 [[x, y, label], ...]，bbox 为 [x1, y1, x2, y2]
type SegmentRequest struct {
	SessionID string      `json:"session_id"`
	Points    [][]float64 `json:"points"`
	BBox      []float64   `json:"bbox"`
	ModelSize string      `json:"model_size"`
}

// BBox 边界框
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type SegmentResponse struct {
	Success  bool    `json:"success"`
	MaskURL  string  `json:"mask_url"`
	Score    float64 `json:"score"`
	Model    string  `json:"model"`
	BBox     *BBox   `json:"bbox,omitempty"`
	Coverage float64 `json:"coverage"`
	Cached   bool    `json:"cached"`
}

// AdjustRequest 未传的字段保持默认值：三个系数 1.0，白色背景，不腐蚀不模糊
type AdjustRequest struct {
	SessionID       string  `json:"session_id"`
	Brightness      float64 `json:"brightness"`
	Contrast        float64 `json:"contrast"`
	Saturation      float64 `json:"saturation"`
	BackgroundColor []int   `json:"background_color"`
	EdgeBlur        int     `json:"edge_blur"`
	Erode           int     `json:"erode"`
	Transparent     bool    `json:"transparent"`
}

// NewAdjustRequest 返回填好默认值的请求，再用请求体覆盖
func NewAdjustRequest() *AdjustRequest {
	return &AdjustRequest{
		Brightness:      1.0,
		Contrast:        1.0,
		Saturation:      1.0,
		BackgroundColor: []int{255, 255, 255},
	}
}

type AdjustResponse struct {
	Success   bool   `json:"success"`
	ResultURL string `json:"result_url"`
}

// ManualMaskRequest mask_data 为 base64 PNG，可带 data:image/png;base64, 前缀
type ManualMaskRequest struct {
	SessionID string `json:"session_id"`
	MaskData  string `json:"mask_data"`
}

type MaskResponse struct {
	Success bool   `json:"success"`
	MaskURL string `json:"mask_url"`
}
