// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"text/template"

	apperrors "github.com/NVIDIA/storage-facts/pkg/errors"
	"github.com/NVIDIA/storage-facts/pkg/facts"
	"github.com/NVIDIA/storage-facts/pkg/registry"
)

// maxStderr bounds the command output kept in a failure message.
const maxStderr = 512

// CommandFetcher runs an external command per category. Every argument is a
// text/template over Category, Source and Spec. Stdout is the payload.
type CommandFetcher struct {
	path string
	args []*template.Template
	env  []string
}

// NewCommandFetcher resolves argv[0] on PATH and parses the argument templates.
func NewCommandFetcher(argv []string, opts ...Option) (*CommandFetcher, error) {
	if len(argv) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "command is empty")
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeNotFound,
			fmt.Sprintf("%s not found in PATH", argv[0]), err)
	}

	args := make([]*template.Template, 0, len(argv)-1)
	for i, a := range argv[1:] {
		t, err := parseTemplate(fmt.Sprintf("arg%d", i+1), a)
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}

	cfg := newConfig(opts)
	return &CommandFetcher{path: path, args: args, env: cfg.env}, nil
}

// Args renders the argument list for d.
func (f *CommandFetcher) Args(d registry.Descriptor) ([]string, error) {
	out := make([]string, 0, len(f.args))
	for _, t := range f.args {
		a, err := render(t, d)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Fetch runs the command and decodes its stdout. A non-zero exit is an
// error carrying the tail of stderr.
func (f *CommandFetcher) Fetch(ctx context.Context, d registry.Descriptor) (any, error) {
	args, err := f.Args(d)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, f.path, args...)
	cmd.Env = append(os.Environ(), "SF_CATEGORY="+d.Category, "SF_SOURCE="+d.Source)
	cmd.Env = append(cmd.Env, f.env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if msg := tail(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", d.Category, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", d.Category, err)
	}

	v, err := facts.DecodePayload(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Category, err)
	}
	return v, nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = "..." + s[len(s)-maxStderr:]
	}
	return s
}
