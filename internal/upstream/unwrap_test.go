package upstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrapList(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bare array", `[{"id":1}]`, `[{"id":1}]`},
		{"named key", `{"total":2,"routes":[{"id":1}]}`, `[{"id":1}]`},
		{"data array", `{"data":[{"id":2}]}`, `[{"id":2}]`},
		{"data envelope with named key", `{"data":{"routes":[{"id":3}]}}`, `[{"id":3}]`},
		{"first array field", `{"meta":{},"items":[{"id":4}],"zz":[1]}`, `[{"id":4}]`},
		{"empty body", ``, `[]`},
		{"scalar", `"nope"`, `[]`},
		{"object without arrays", `{"message":"ok"}`, `[]`},
		{"invalid json", `{"routes":`, `[]`},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, string(UnwrapList([]byte(tt.body), "routes")))
		})
	}
}

func TestUnwrapObject(t *testing.T) {
	assert.JSONEq(t, `{"id":1}`, string(UnwrapObject([]byte(`{"schedule":{"id":1}}`), "schedule")))
	assert.JSONEq(t, `{"id":2}`, string(UnwrapObject([]byte(`{"data":{"id":2}}`), "schedule")))
	assert.JSONEq(t, `{"id":3,"bus_number":"B"}`, string(UnwrapObject([]byte(`{"id":3,"bus_number":"B"}`), "schedule")))
	assert.Empty(t, UnwrapObject([]byte(`  `), "schedule"))
}
