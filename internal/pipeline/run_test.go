package pipeline

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jorgelunams/contratospoc/constants"
)

func TestRunStaysInTerminalState(t *testing.T) {
	var buf bytes.Buffer
	r := &run{state: constants.StateReceived, log: slog.New(slog.NewTextHandler(&buf, nil))}

	res := r.fail("boom", nil)
	assert.Equal(t, constants.StateFailed, res.State)

	r.advance(constants.StateCompleted)
	assert.Equal(t, constants.StateFailed, r.state)
	assert.Contains(t, buf.String(), "pipeline.transition_ignored")
}
