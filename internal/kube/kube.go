// Package kube provides low-level integration with the cluster control plane via kubectl.
package kube

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Client wraps kubectl execution with optional kubeconfig and context selection.
type Client struct {
	Kubeconfig string
	Context    string

	// Output receives kubectl stdout/stderr; defaults to os.Stderr.
	Output io.Writer
}

// NewClient constructs a new Kubernetes client wrapper.
func NewClient(kubeconfig, kubeContext string, output io.Writer) *Client {
	return &Client{
		Kubeconfig: kubeconfig,
		Context:    kubeContext,
		Output:     output,
	}
}

// Apply applies the given YAML to the cluster using kubectl apply -f -.
func (c *Client) Apply(ctx context.Context, yaml []byte) error {
	return c.runKubectl(ctx, yaml, "apply", "-f", "-")
}

func (c *Client) runKubectl(ctx context.Context, stdin []byte, args ...string) error {
	cmdArgs := make([]string, 0, len(args)+2)
	if c.Context != "" {
		cmdArgs = append(cmdArgs, "--context", c.Context)
	}
	cmdArgs = append(cmdArgs, args...)

	out := c.Output
	if out == nil {
		out = os.Stderr
	}

	cmd := exec.CommandContext(ctx, "kubectl", cmdArgs...)
	cmd.Stdout = out
	cmd.Stderr = out

	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	if c.Kubeconfig != "" {
		env := os.Environ()
		env = append(env, "KUBECONFIG="+c.Kubeconfig)
		cmd.Env = env
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("kubectl %v failed: %w", args, err)
	}
	return nil
}
