package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	want := "- **Button** (aliases: btn, PushButton): A clickable button.\n" +
		"  - `disabled` boolean\n" +
		"  - `label` string, required: Visible text\n" +
		"  - `variant` string, one of: primary | secondary, default primary\n" +
		"- **Stack**: Lays out children vertically.\n" +
		"  - `gap` number\n" +
		"- **Text**"
	assert.Equal(t, want, c.Describe())
	assert.Equal(t, c.Describe(), c.Describe())
}
