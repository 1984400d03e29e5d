package imagestats

import (
	"bytes"
	"io"
)

// replayReader records what DecodeConfig consumes so the full decode can
// start from the beginning without buffering the payload twice.
type replayReader struct {
	r   io.Reader
	buf bytes.Buffer
}

func newReplayReader(r io.Reader) *replayReader {
	return &replayReader{r: r}
}

func (rr *replayReader) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	rr.buf.Write(p[:n])
	return n, err
}

func (rr *replayReader) replay() io.Reader {
	return io.MultiReader(&rr.buf, rr.r)
}
