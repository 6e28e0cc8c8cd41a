package main

import (
	"fmt"
	"io"
	"strings"
)

const progressWidth = 40

// progressBar draws solver progress on a single terminal line.
type progressBar struct {
	w    io.Writer
	last int
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{w: w, last: -1}
}

func (pb *progressBar) Show(percent float32) {
	filled := int(percent) * progressWidth / 100
	if filled == pb.last {
		return
	}
	pb.last = filled
	fmt.Fprintf(pb.w, "\r[%s%s] %3.0f%%",
		strings.Repeat("#", filled),
		strings.Repeat(" ", progressWidth-filled),
		percent)
}

func (pb *progressBar) Stop() {
	fmt.Fprintln(pb.w)
	pb.last = -1
}
