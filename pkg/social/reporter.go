package social

// ErrorReporter 接收每一次 LastError 更新，在记录错误的 goroutine 上同步调用，不应阻塞
type ErrorReporter interface {
	ReportError(rec ErrorRecord)
}

// ErrorReporterFunc 函数形式的 ErrorReporter
type ErrorReporterFunc func(rec ErrorRecord)

func (f ErrorReporterFunc) ReportError(rec ErrorRecord) { f(rec) }

type nopReporter struct{}

func (nopReporter) ReportError(ErrorRecord) {}
