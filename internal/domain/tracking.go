package domain

// RunStatus enumerates tracking-run lifecycle states.
type RunStatus string

const (
	RunRunning  RunStatus = "RUNNING"
	RunFinished RunStatus = "FINISHED"
	RunFailed   RunStatus = "FAILED"
)

// ModelStage enumerates registry stages a model version moves through.
type ModelStage string

const (
	StageNone       ModelStage = "None"
	StageStaging    ModelStage = "Staging"
	StageProduction ModelStage = "Production"
	StageArchived   ModelStage = "Archived"
)

// Run is a tracking-server run handle.
type Run struct {
	ID           string
	ExperimentID string
	Name         string
	Status       RunStatus
}

// ModelVersion describes one registered model version.
type ModelVersion struct {
	Name    string
	Version string
	Stage   ModelStage
	RunID   string
}
