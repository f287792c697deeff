package taskclient

// Task is a unit of work handed out by the coordinating server. Fields are
// server defined; the client only touches json_metadata.
type Task map[string]any

const metadataField = "json_metadata"

// ID returns the task identifier, or nil if the server did not send one.
func (t Task) ID() any { return t["id"] }

// URL returns the url field when it is a string.
func (t Task) URL() string {
	s, _ := t["url"].(string)
	return s
}

// JSONMetadata returns the (already decoded) json_metadata value.
func (t Task) JSONMetadata() any { return t[metadataField] }
