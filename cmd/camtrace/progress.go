package main

import (
	"os"

	"github.com/cheggaaa/pb/v3"
)

const barTemplate = `{{ string . "prefix" }} {{counters . "%s/%s" "%s/?"}} {{bar . }} {{percent . "%.01f%%" "?"}} {{etime . "%s elapsed"}}`

// barProgress renders segment progress on stderr.
type barProgress struct {
	bar *pb.ProgressBar
}

func (p *barProgress) Start(total int) {
	p.bar = pb.ProgressBarTemplate(barTemplate).New(total)
	p.bar.Set("prefix", "[*] Segments")
	p.bar.SetWriter(os.Stderr)
	p.bar.Start()
}

func (p *barProgress) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *barProgress) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}
