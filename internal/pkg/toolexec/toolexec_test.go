package toolexec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunCapturesOutputAndCleanNonZeroExit(t *testing.T) {
	res := Run(context.Background(), Invocation{
		Name: "sh",
		Bin:  "/bin/sh",
		Args: []string{"-c", "echo error: boom; exit 7"},
	}, nil)

	assert.NoError(t, res.Err)
	assert.Equal(t, 7, res.ExitCode)
	assert.Contains(t, res.Output, "error: boom")
}

func TestRunSuccessHasZeroExitAndNoError(t *testing.T) {
	res := Run(context.Background(), Invocation{
		Name: "sh",
		Bin:  "/bin/sh",
		Args: []string{"-c", "echo ok"},
	}, nil)

	assert.NoError(t, res.Err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Output, "ok")
}

func TestRunMissingBinaryYieldsErr(t *testing.T) {
	res := Run(context.Background(), Invocation{
		Name: "nope",
		Bin:  "/no/such/binary-xyz",
	}, nil)

	assert.Error(t, res.Err)
}

func TestRunCancelledContextYieldsErr(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Run(ctx, Invocation{
		Name: "sh",
		Bin:  "/bin/sh",
		Args: []string{"-c", "sleep 5"},
	}, nil)

	assert.Error(t, res.Err)
}

func TestRunHonorsDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := Run(ctx, Invocation{
		Name: "sh",
		Bin:  "/bin/sh",
		Args: []string{"-c", "sleep 5"},
	}, nil)

	assert.Error(t, res.Err)
}
