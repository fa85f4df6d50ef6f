// Copyright 2025 walteh LLC
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

package operation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/packmmip/pkg/fault"
)

// 🏃 OperationRunner executes operations
type OperationRunner struct {
	logger *zerolog.Logger
	async  bool
	mu     sync.Mutex // one pack at a time per process
}

// 🏗️ NewRunner creates a new runner
func NewRunner(logger *zerolog.Logger, async bool) *OperationRunner {
	return &OperationRunner{
		logger: logger,
		async:  async,
	}
}

// 🏃 Run executes an operation
func (r *OperationRunner) Run(ctx context.Context, op Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug().Bool("async", r.async).Msgf("running %T", op)
	start := time.Now()

	var err error
	if r.async {
		err = r.runAsync(ctx, op)
	} else {
		err = r.runSync(ctx, op)
	}

	ev := r.logger.Debug()
	if err != nil {
		ev = ev.Err(err).Stringer("kind", fault.KindOf(err))
	}
	ev.Dur("took", time.Since(start)).Msgf("finished %T", op)

	return err
}

// 🔄 runSync runs an operation synchronously
func (r *OperationRunner) runSync(ctx context.Context, op Operation) error {
	return op.Execute(ctx)
}

// ⚡ runAsync runs the operation in a goroutine and gives up waiting when
// ctx is done. The operation sees the same ctx and stops at its next
// check; Run waits for it so the destination is never left half written.
func (r *OperationRunner) runAsync(ctx context.Context, op Operation) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- op.Execute(ctx)
	}()

	select {
	case <-ctx.Done():
		err := <-errCh
		if err == nil {
			return nil
		}
		return errors.Errorf("operation cancelled: %w", err)
	case err := <-errCh:
		return err
	}
}
