package models

// DocumentVersion is the version written by this release. Version 1
// documents may carry schedules without an id.
const DocumentVersion = 2

// Document is the persisted form of every zone's schedules and hold.
type Document struct {
	Version   int                   `json:"version"`
	Schedules map[string][]Schedule `json:"schedules"`
	Holds     map[string]Hold       `json:"holds"`
}

func NewDocument() *Document {
	return &Document{
		Version:   DocumentVersion,
		Schedules: map[string][]Schedule{},
		Holds:     map[string]Hold{},
	}
}
