package pkg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinedWriter(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	cw := NewCombinedWriter(&buf1, &buf2)

	n, err := cw.Write([]byte("pushstats"))
	require.NoError(t, err)
	assert.Equal(t, 2*len("pushstats"), n)
	assert.Equal(t, "pushstats", buf1.String())
	assert.Equal(t, "pushstats", buf2.String())
}
