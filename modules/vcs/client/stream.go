// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package client

import (
	"io"
)

// ChunkReader yields the body of a streaming method in fixed-size chunks.
// Every chunk has exactly ChunkSize bytes except the final one. The stream
// is consumed incrementally; nothing is buffered beyond one chunk.
type ChunkReader struct {
	body      io.ReadCloser
	chunkSize int
	release   func()
	done      bool
}

func newChunkReader(body io.ReadCloser, chunkSize int, release func()) *ChunkReader {
	if chunkSize <= 0 {
		chunkSize = 16384
	}
	return &ChunkReader{body: body, chunkSize: chunkSize, release: release}
}

// ChunkSize returns the fixed chunk size
func (r *ChunkReader) ChunkSize() int {
	return r.chunkSize
}

// Next returns the next chunk. io.EOF signals a clean end of stream; the
// last data chunk may be shorter than ChunkSize.
func (r *ChunkReader) Next() ([]byte, error) {
	if r.done {
		return nil, io.EOF
	}
	buf := make([]byte, r.chunkSize)
	n, err := io.ReadFull(r.body, buf)
	switch err {
	case nil:
		return buf, nil
	case io.ErrUnexpectedEOF:
		r.done = true
		return buf[:n], nil
	case io.EOF:
		r.done = true
		return nil, io.EOF
	default:
		r.done = true
		return nil, err
	}
}

// WriteTo drains the remaining stream into w chunk by chunk
func (r *ChunkReader) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for {
		chunk, err := r.Next()
		if len(chunk) > 0 {
			n, werr := w.Write(chunk)
			written += int64(n)
			if werr != nil {
				return written, werr
			}
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}

// Close releases the underlying body and returns the pooled connection
func (r *ChunkReader) Close() error {
	err := r.body.Close()
	if r.release != nil {
		r.release()
		r.release = nil
	}
	return err
}
