package module

import dom "vdyp/internal/services/fip/domain"

// Ports holds the ports exposed by the fip module
type Ports struct {
	Processor dom.ProcessorPort
	Runner    dom.RunnerPort
	Writer    dom.WriterPort
	Query     dom.QueryPort
}
