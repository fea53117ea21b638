package dispatch

// SendResult is the per-address delivery result.
type SendResult struct {
	Success    bool   `json:"success"`
	ExternalID string `json:"external_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Outcome aggregates a dispatch. For topic sends only Success, ExternalID
// and Error are populated; for individual sends the counts and per-address
// results are filled and SuccessCount+FailureCount equals the number of
// addresses attempted.
type Outcome struct {
	Success      bool                  `json:"success"`
	ExternalID   string                `json:"external_id,omitempty"`
	Error        string                `json:"error,omitempty"`
	SuccessCount int                   `json:"success_count"`
	FailureCount int                   `json:"failure_count"`
	Results      map[string]SendResult `json:"results,omitempty"`
}

// Failures returns the failed addresses with their error text, the shape
// the recipient health tracker consumes.
func (o *Outcome) Failures() map[string]string {
	if len(o.Results) == 0 {
		return nil
	}
	out := make(map[string]string)
	for address, res := range o.Results {
		if !res.Success {
			out[address] = res.Error
		}
	}
	return out
}

// Attempted returns the total number of addresses this outcome covers.
func (o *Outcome) Attempted() int {
	return o.SuccessCount + o.FailureCount
}
