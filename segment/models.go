package segment

import "strings"

const DefaultModel = "small"

// ModelSpec 一个 SAM2.1 checkpoint 的静态信息
type ModelSpec struct {
	Key        string
	Checkpoint string
	Config     string
	VRAMGB     int
	Speed      string
	Quality    string
}

// Name 展示名，base_plus -> Base Plus
func (s ModelSpec) Name() string {
	words := strings.Split(s.Key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// 从小到大
var registry = []ModelSpec{
	{
		Key:        "tiny",
		Checkpoint: "sam2/checkpoints/sam2.1_hiera_tiny.pt",
		Config:     "configs/sam2.1/sam2.1_hiera_t.yaml",
		VRAMGB:     2,
		Speed:      "Very fast",
		Quality:    "Basic",
	},
	{
		Key:        "small",
		Checkpoint: "sam2/checkpoints/sam2.1_hiera_small.pt",
		Config:     "configs/sam2.1/sam2.1_hiera_s.yaml",
		VRAMGB:     4,
		Speed:      "Fast",
		Quality:    "Good",
	},
	{
		Key:        "base_plus",
		Checkpoint: "sam2/checkpoints/sam2.1_hiera_base_plus.pt",
		Config:     "configs/sam2.1/sam2.1_hiera_b+.yaml",
		VRAMGB:     6,
		Speed:      "Medium",
		Quality:    "Very good",
	},
	{
		Key:        "large",
		Checkpoint: "sam2/checkpoints/sam2.1_hiera_large.pt",
		Config:     "configs/sam2.1/sam2.1_hiera_l.yaml",
		VRAMGB:     8,
		Speed:      "Slow",
		Quality:    "Best",
	},
}

// Models 返回所有可用模型的拷贝
func Models() []ModelSpec {
	out := make([]ModelSpec, len(registry))
	copy(out, registry)
	return out
}

// Lookup 未知的 key 回退到 small
func Lookup(key string) ModelSpec {
	for _, m := range registry {
		if m.Key == key {
			return m
		}
	}
	return Lookup(DefaultModel)
}

// Known 判断 key 是否在注册表中
func Known(key string) bool {
	for _, m := range registry {
		if m.Key == key {
			return true
		}
	}
	return false
}
