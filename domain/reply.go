package domain

// Reply is the normalized answer produced by a single dispatch branch. Each
// branch has its own concrete type so its output shape is statically known;
// on the wire they all collapse into the loose optional-field envelope
// {text, imageUrl, tasksUpdated} through per-type JSON tags.
type Reply interface {
	reply()
}

// WeatherReply carries the formatted current-weather sentence.
type WeatherReply struct {
	Text string `json:"text"`
}

// ImageReply carries an introduction line and, when a photo was found, its URL.
type ImageReply struct {
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// NewsReply carries the enumerated headline list.
type NewsReply struct {
	Text string `json:"text"`
}

// TaskReply confirms a task creation or carries the format hint when the
// query did not match the add-task shape.
type TaskReply struct {
	Text         string `json:"text"`
	TasksUpdated bool   `json:"tasksUpdated,omitempty"`
}

// GeneralReply carries the text-completion answer for the fallback branch.
type GeneralReply struct {
	Text string `json:"text"`
}

func (WeatherReply) reply() {}
func (ImageReply) reply()   {}
func (NewsReply) reply()    {}
func (TaskReply) reply()    {}
func (GeneralReply) reply() {}
