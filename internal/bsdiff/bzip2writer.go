package bsdiff

import (
	"bytes"
	"io"
	"os"
	"os/exec"

	"github.com/minecanton209/patchy/internal/updateerr"
)

// bzip2Writer shells out to lbzip2 (falling back to bzip2) because
// compress/bzip2 in the standard library only decodes; the ecosystem has no
// pure-Go bzip2 encoder in wide use, so this wraps a system binary the way
// the codec's own generator does.
type bzip2Writer struct {
	cmd *exec.Cmd
	in  io.WriteCloser
}

func newBzip2Writer(w io.Writer) (io.WriteCloser, error) {
	zipper, err := exec.LookPath("lbzip2")
	if err != nil {
		zipper = "bzip2"
	}

	cmd := exec.Command(zipper, "-c")
	cmd.Stdout = w
	cmd.Stderr = os.Stderr

	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, updateerr.Wrap(updateerr.Io, zipper, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, updateerr.Wrap(updateerr.Io, zipper, err)
	}

	return &bzip2Writer{cmd: cmd, in: in}, nil
}

func (bz *bzip2Writer) Write(p []byte) (int, error) {
	return bz.in.Write(p)
}

// Close stops the compressor and flushes any remaining output. The
// underlying writer passed to newBzip2Writer is not closed.
func (bz *bzip2Writer) Close() error {
	if err := bz.in.Close(); err != nil {
		return updateerr.Wrap(updateerr.Io, "", err)
	}
	if err := bz.cmd.Wait(); err != nil {
		return updateerr.Wrap(updateerr.Io, "", err)
	}
	return nil
}

// bzip2Compress compresses data in one shot using the system bzip2 binary.
func bzip2Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := newBzip2Writer(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, updateerr.Wrap(updateerr.Io, "", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
