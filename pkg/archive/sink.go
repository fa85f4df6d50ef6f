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

package archive

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/packmmip/pkg/fault"
)

// WriteHint is shown when the destination cannot be written
const WriteHint = "is the file open in another program?"

// 🚰 sink streams a zip archive into the destination file. The archive
// writer feeds a pipe; one goroutine drains the pipe into the file and
// closes it. That close is the only completion signal.
type sink struct {
	path string
	pw   *io.PipeWriter
	zw   *zip.Writer
	g    errgroup.Group

	written int64 // set by the drain goroutine, read after Wait
	done    bool
}

func writeFailure(path string, err error) error {
	return fault.New(fault.KindWrite, errors.Errorf("writing %s: %w", path, err)).WithHint(WriteHint)
}

// 🏭 openSink creates (or truncates) path and starts draining into it
func openSink(ctx context.Context, path string) (*sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, writeFailure(path, err)
	}

	pr, pw := io.Pipe()
	s := &sink{path: path, pw: pw}

	s.g.Go(func() error {
		n, err := io.Copy(f, pr)
		s.written = n
		if err != nil {
			pr.CloseWithError(err)
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		zerolog.Ctx(ctx).Debug().Str("path", path).Int64("bytes", n).Msg("archive file closed")
		return nil
	})

	s.zw = zip.NewWriter(pw)
	return s, nil
}

// create starts a new deflated entry
func (s *sink) create(name string, modified time.Time) (io.Writer, error) {
	w, err := s.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return nil, writeFailure(s.path, err)
	}
	return w, nil
}

// finalize writes the central directory and waits for the file to close
func (s *sink) finalize() (int64, error) {
	s.done = true

	if err := s.zw.Close(); err != nil {
		s.pw.CloseWithError(err)
		_ = s.g.Wait()
		os.Remove(s.path)
		return 0, writeFailure(s.path, err)
	}

	s.pw.Close()
	if err := s.g.Wait(); err != nil {
		os.Remove(s.path)
		return 0, writeFailure(s.path, err)
	}

	return s.written, nil
}

// abort stops the drain and removes the partial file. It is a no-op after
// finalize.
func (s *sink) abort(cause error) {
	if s.done {
		return
	}
	s.done = true

	if cause == nil {
		cause = errors.New("archive aborted")
	}
	s.pw.CloseWithError(cause)
	_ = s.g.Wait()
	os.Remove(s.path)
}
