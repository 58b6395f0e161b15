package execution

// LoadStage is one phase of heavyweight runtime provisioning.
type LoadStage string

const (
	StageChecking    LoadStage = "checking"
	StageDownloading LoadStage = "downloading"
	StageLoading     LoadStage = "loading"
	StageReady       LoadStage = "ready"
	StageError       LoadStage = "error"
)

// stageOrder encodes the monotonic checking -> downloading -> loading -> ready
// progression. StageError is reachable from any stage.
var stageOrder = map[LoadStage]int{
	StageChecking:    0,
	StageDownloading: 1,
	StageLoading:     2,
	StageReady:       3,
}

// CanTransition reports whether moving from s to next keeps stage ordering.
func (s LoadStage) CanTransition(next LoadStage) bool {
	if next == StageError {
		return true
	}
	from, ok := stageOrder[s]
	if !ok {
		return false
	}
	to, ok := stageOrder[next]
	if !ok {
		return false
	}
	return to >= from
}

// LoadProgress is one progress event emitted by the runtime loader.
type LoadProgress struct {
	Stage           LoadStage `json:"stage"`
	Progress        int       `json:"progress"` // 0..100
	DownloadedBytes int64     `json:"downloadedBytes,omitempty"`
	TotalBytes      int64     `json:"totalBytes,omitempty"`
	Message         string    `json:"message"`
}

// ProgressFunc receives loader progress events. Implementations must not
// block; the loader calls it inline on the loading goroutine.
type ProgressFunc func(LoadProgress)
