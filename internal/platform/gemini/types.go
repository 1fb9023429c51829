package gemini

// promptData represents the data passed to the prompt template. All
// figures are pre-formatted so the template never does arithmetic;
// empty string fields suppress their line.
type promptData struct {
	CycleCount     int
	MeanLength     string
	ShortestLength int
	LongestLength  int
	LastStart      string
	PredictedStart string
	Confidence     string
	Symptoms       []string
	MoodTrend      string
}

// ResponseSchema represents the expected structure of an insight response
// from the Gemini API.
type ResponseSchema struct {
	// Narrative is the generated insight text shown to the user
	Narrative string `json:"narrative"`

	// Highlights are optional short takeaways appended below the narrative
	Highlights []string `json:"highlights,omitempty"`
}
