package offload

import (
	"bufio"
	"fmt"
	"io"
)

// WriteVector prints every element of v to w, one decimal integer per line,
// nothing else. This is the program's result format; diagnostics go to the
// logger on stderr so a failed run never emits a partial vector here.
func WriteVector(w io.Writer, v []int32) error {
	bw := bufio.NewWriter(w)
	for _, x := range v {
		if _, err := fmt.Fprintln(bw, x); err != nil {
			return err
		}
	}
	return bw.Flush()
}
