package handler

const (
	errInternalServer = "Internal server error"
	errInvalidRequest = "Invalid request body"

	errJobNotFound        = "Scheduled job not found"
	errJobNameConflict    = "A job with this name already exists"
	errInvalidScriptPath  = "Script path is invalid or escapes the script root"
	errInvalidScheduleCfg = "Schedule configuration is invalid for this schedule type"

	errDispatchNotFound = "Dispatch not found"
	errWorkerNotFound   = "Worker registration not found"
)
