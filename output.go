package zscore

import (
	"fmt"
	"io"
	"os"

	"github.com/carbocation/pfx"
)

// WriteOutput runs write against the file at path, or against standard output
// when path is "" or "-". The file is created or truncated, and an error from
// closing it is reported like any write error.
func WriteOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}

	f, err := os.Create(ExpandHome(path))
	if err != nil {
		return pfx.Err(err)
	}

	return writeAndClose(f, write)
}

func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		wc.Close()
		return err
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	return nil
}
