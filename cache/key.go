package cache

import (
	"encoding/json"

	"github.com/chaos-io/cutout/util"
)

// SegmentKey segment:<图片md5>:<模型>:<提示md5>
func SegmentKey(image []byte, model string, prompt any) string {
	p, err := json.Marshal(prompt)
	if err != nil {
		p = nil
	}
	return "segment:" + util.BytesMD5(image) + ":" + model + ":" + util.BytesMD5(p)
}
