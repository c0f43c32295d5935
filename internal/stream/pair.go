package stream

import "io"

// NewConnPair returns an input and an output stream over one
// connection.  The connection is closed once, by whichever of the two
// streams is closed first.
func NewConnPair(inName, outName string, rwc io.ReadWriteCloser) (*Input, *Output) {
	oc := &onceCloser{c: rwc}
	return NewInput(inName, rwc, oc), NewOutput(outName, rwc, oc)
}
