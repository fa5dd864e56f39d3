package server

// Server aggregates the entity-specific HTTP servers of the administrative
// API into one route registrar.
type Server struct {
	TrackerServer
	SubjectServer
}

func NewServer(
	trackerServer TrackerServer,
	subjectServer SubjectServer,
) Server {
	return Server{
		TrackerServer: trackerServer,
		SubjectServer: subjectServer,
	}
}
