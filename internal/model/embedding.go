package model

type ScoredDocument struct {
	ID string `json:"id"`
	Document
	Distance float32 `json:"distance"`
}

// IndexManifest describes how a persisted index was produced.
type IndexManifest struct {
	Model     string `json:"model"`
	Dims      int    `json:"dims"`
	Count     int    `json:"count"`
	BuildTime int64  `json:"build_time"`
}
