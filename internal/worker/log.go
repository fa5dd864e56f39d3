package worker

import (
	"buybox_tracker/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault
