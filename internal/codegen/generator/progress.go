package generator

// ProgressReporter receives per-file progress of a run.
type ProgressReporter interface {
	OnScanStart(totalFiles int)
	OnFileScanned(path string)
	OnScanComplete()
}

// NoOpProgressReporter is a progress reporter that does nothing.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnScanStart(int)      {}
func (NoOpProgressReporter) OnFileScanned(string) {}
func (NoOpProgressReporter) OnScanComplete()      {}
