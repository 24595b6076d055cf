package domain

// ItemStatus is the outcome reported for one batch item.
// Values are the ones the comparison front end already displays.
type ItemStatus string

const (
	StatusOK             ItemStatus = "OK"
	StatusNoStock        ItemStatus = "Sin stock"
	StatusNotAvailable   ItemStatus = "No disponible"
	StatusNoPrice        ItemStatus = "Sin precio"
	StatusError          ItemStatus = "Error"
	StatusNotImplemented ItemStatus = "No implementado"
)

// DefaultBatchLimit is used when a compare request does not set a limit
const DefaultBatchLimit = 50

// CompareRequest asks for the best match of every item against one competitor
type CompareRequest struct {
	Competitor string   `json:"competitor" binding:"required"`
	Store      string   `json:"store"`
	Offset     int      `json:"offset"`
	Limit      int      `json:"limit"`
	Items      []string `json:"items" binding:"required"`
}

// ItemResult is the outcome for a single input item
type ItemResult struct {
	Input     string     `json:"input"`
	Status    ItemStatus `json:"status"`
	Name      string     `json:"name,omitempty"`
	Price     *float64   `json:"price,omitempty"`
	ListPrice *float64   `json:"listPrice,omitempty"`
	URL       string     `json:"url,omitempty"`
	Tier      Tier       `json:"tier,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// CompareResponse holds one result per item in the requested slice
type CompareResponse struct {
	RequestID  string       `json:"requestId"`
	Competitor string       `json:"competitor"`
	Store      string       `json:"store"`
	Offset     int          `json:"offset"`
	Limit      int          `json:"limit"`
	Count      int          `json:"count"`
	Results    []ItemResult `json:"results"`
}
