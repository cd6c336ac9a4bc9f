package schema

// Kind is the classifier verdict.
type Kind string

const (
	KindTask Kind = "task"
	KindNote Kind = "note"
	KindBoth Kind = "both"
)

// Priority values accepted from the task structuring call.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

const (
	ShapeClassification = "classification"
	ShapeTask           = "task"
	ShapeNote           = "note"
	ShapeDueTime        = "due_time"
	ShapeCategories     = "categories"
	ShapeSteps          = "steps"
	ShapeDifficulty     = "difficulty"
)

// Classification is the validated classifier output. It is never persisted.
type Classification struct {
	Kind       Kind    `json:"kind"`
	Confidence float64 `json:"confidence"`
}

type classificationWire struct {
	Kind       string   `json:"kind" validate:"required,oneof=task note both"`
	Confidence *float64 `json:"confidence" validate:"required,gte=0,lte=1"`
}

// StructuredTask is the task structuring payload.
type StructuredTask struct {
	Title      string `json:"title" validate:"required"`
	Content    string `json:"content"`
	Priority   string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Difficulty *int   `json:"difficulty" validate:"omitempty,min=1,max=5"`
}

// taskWire accepts the difficulty hint as any JSON number so that integral
// floats such as 3.0 decode.
type taskWire struct {
	Title      string   `json:"title" validate:"required"`
	Content    string   `json:"content"`
	Priority   string   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Difficulty *float64 `json:"difficulty" validate:"omitempty,min=1,max=5"`
}

// StructuredNote is the note structuring payload.
type StructuredNote struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
}

// DueTimeFields is what the due-time extractor asks the model for: a calendar
// date and a wall-clock time, either of which may be absent.
type DueTimeFields struct {
	Date *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time *string `json:"time" validate:"omitempty,datetime=15:04"`
}
