package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModels_AscendingSize(t *testing.T) {
	models := Models()
	assert.Len(t, models, 4)

	keys := make([]string, 0, len(models))
	for i, m := range models {
		keys = append(keys, m.Key)
		if i > 0 {
			assert.Greater(t, m.VRAMGB, models[i-1].VRAMGB)
		}
	}
	assert.Equal(t, []string{"tiny", "small", "base_plus", "large"}, keys)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "tiny", want: "tiny"},
		{key: "large", want: "large"},
		{key: "base_plus", want: "base_plus"},
		{key: "", want: "small"},
		{key: "huge", want: "small"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup(tt.key).Key)
		})
	}
}

func TestModelSpec_Name(t *testing.T) {
	assert.Equal(t, "Base Plus", Lookup("base_plus").Name())
	assert.Equal(t, "Tiny", Lookup("tiny").Name())
}

func TestModels_ReturnsCopy(t *testing.T) {
	models := Models()
	models[0].Key = "mutated"
	assert.Equal(t, "tiny", Models()[0].Key)
	assert.True(t, Known("tiny"))
	assert.False(t, Known("mutated"))
}
