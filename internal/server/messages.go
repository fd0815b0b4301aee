package server

import (
	"github.com/joseph-ayodele/freight-reader/internal/freight"
	"github.com/joseph-ayodele/freight-reader/internal/utils"
)

type normalizeRequest struct {
	Pages []freight.RawPageExtraction `json:"pages"`
}

type revalidateRequest struct {
	Document  *freight.Document `json:"document"`
	Overrides freight.Overrides `json:"overrides"`
}

type documentResponse struct {
	Document *freight.Document `json:"document"`
}

type pageImage struct {
	Page        int    `json:"page"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"` // base64
}

type submitRequest struct {
	FileName string      `json:"fileName"`
	Pages    []pageImage `json:"pages"`
	Async    bool        `json:"async"`
}

type idRequest struct {
	ID string `json:"id"`
}

type editRequest struct {
	ID        string            `json:"id"`
	Overrides freight.Overrides `json:"overrides"`
}

type pinRequest struct {
	ID     string `json:"id"`
	Pinned bool   `json:"pinned"`
}

type listRequest struct {
	Limit int `json:"limit"`
}

type exportRequest struct {
	ID     string `json:"id"`
	Format string `json:"format"`
}

type recordResponse struct {
	Record utils.RecordView `json:"record"`
}

type listResponse struct {
	Records []utils.RecordView `json:"records"`
}

type fileResponse struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
	Attempted   int    `json:"attempted,omitempty"`
	Exported    int    `json:"exported,omitempty"`
	Skipped     int    `json:"skipped,omitempty"`
}
