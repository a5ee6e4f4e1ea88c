package shell

import (
	"bufio"
	"io"
	"strings"
)

// readLines reads r line by line and sends each line, tagged with origin,
// onto out. Lines have no length limit: the buffer grows as needed, so a
// misbehaving child producing enormous lines costs memory but is never
// blocked on a full pipe. The pipe is always read to EOF; out is closed
// when the stream ends, which is the only termination condition.
func readLines(r io.Reader, origin Origin, out chan<- TaggedLine) {
	defer close(out)

	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			out <- TaggedLine{Origin: origin, Text: strings.TrimSuffix(line, "\n")}
		}
		if err != nil {
			return
		}
	}
}
